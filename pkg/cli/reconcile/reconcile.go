/* Copyright (C) 2024, 2025 notebridge contributors
 *
 * This file is part of notebridge.
 *
 * notebridge is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * notebridge is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with notebridge.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package reconcile matches the current snapshots of the two sides against
// each other and against the recorded sync state, producing a plan of
// pairs, new notes, deletions and moves. It performs no I/O.
package reconcile

import (
	"sort"
	"time"

	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/normalize"
	"github.com/gorf/notebridge/pkg/cli/syncmeta"
	"github.com/gorf/notebridge/pkg/cli/utils"
)

// Side identifies one of the two sides of a pair
type Side int

const (
	// SideService is the note service
	SideService Side = iota
	// SideVault is the markdown vault
	SideVault
)

func (s Side) String() string {
	if s == SideService {
		return "service"
	}

	return "vault"
}

// Note is a side-independent snapshot of a single note. LocalID is the API
// id on the service side and the vault-relative file path on the vault
// side. Meta is nil when the note carries no sync record.
type Note struct {
	LocalID    string
	Title      string
	Body       string
	Container  string
	ModifiedAt time.Time
	Meta       *syncmeta.Record
}

// Pair is a note resolved on both sides under one sync id
type Pair struct {
	SyncID  string
	Service Note
	Vault   Note
	// NeedsBackfill marks pairs matched by content whose sides do not
	// both carry the sync record yet
	NeedsBackfill bool
}

// Deletion records that one side no longer has a note the state store
// knows about
type Deletion struct {
	SyncID    string
	DeletedOn Side
	// Counterpart is the surviving note on the other side, nil when the
	// note is gone from both sides and only the state entry remains
	Counterpart *Note
	Entry       database.StateEntry
}

// Move mirrors a container change from the side that moved a note onto
// the other side
type Move struct {
	SyncID       string
	MovedOn      Side
	Target       Note
	NewContainer string
	Entry        database.StateEntry
}

// Plan is the full outcome of a reconciliation pass
type Plan struct {
	Matched    []Pair
	NewService []Note
	NewVault   []Note
	Deletions  []Deletion
	Moves      []Move
}

// metaID returns the note's recorded sync id, or empty
func metaID(n Note) string {
	if n.Meta == nil {
		return ""
	}

	return n.Meta.ID
}

func indexByID(notes []Note) map[string]Note {
	ret := map[string]Note{}

	for _, n := range notes {
		id := metaID(n)
		if id == "" {
			continue
		}
		if _, ok := ret[id]; ok {
			// duplicated sync id on one side is a defect surfaced by the
			// duplicate detector; matching uses the first occurrence
			continue
		}
		ret[id] = n
	}

	return ret
}

// Reconcile builds a sync plan from the two current snapshots and the
// recorded state entries
func Reconcile(service, vault []Note, entries map[string]database.StateEntry) Plan {
	var plan Plan

	serviceByID := indexByID(service)
	vaultByID := indexByID(vault)

	paired := map[string]bool{}

	// 1. identity matches, in service snapshot order
	for _, s := range service {
		id := metaID(s)
		if id == "" || paired[id] {
			continue
		}
		if serviceByID[id].LocalID != s.LocalID {
			continue
		}
		v, ok := vaultByID[id]
		if !ok {
			continue
		}

		plan.Matched = append(plan.Matched, Pair{SyncID: id, Service: s, Vault: v})
		paired[id] = true
	}

	matchedService := map[string]bool{}
	matchedVault := map[string]bool{}
	for _, p := range plan.Matched {
		matchedService[p.Service.LocalID] = true
		matchedVault[p.Vault.LocalID] = true
	}

	// 2. content-hash fallback over the unmatched remainder. Empty notes
	// are excluded so that blank scratch files do not all collapse into
	// one pair.
	vaultByHash := map[string][]Note{}
	for _, v := range vault {
		if matchedVault[v.LocalID] || normalize.IsEmpty(v.Body) {
			continue
		}
		h := normalize.Hash(v.Body)
		vaultByHash[h] = append(vaultByHash[h], v)
	}

	usedVault := map[string]bool{}
	for _, s := range service {
		if matchedService[s.LocalID] || normalize.IsEmpty(s.Body) {
			continue
		}

		var hit *Note
		for i := range vaultByHash[normalize.Hash(s.Body)] {
			v := vaultByHash[normalize.Hash(s.Body)][i]
			if usedVault[v.LocalID] {
				continue
			}
			// two different recorded ids mean two distinct notes that
			// happen to read the same
			if metaID(s) != "" && metaID(v) != "" && metaID(s) != metaID(v) {
				continue
			}
			hit = &v
			break
		}
		if hit == nil {
			continue
		}

		id := metaID(s)
		if id == "" {
			id = metaID(*hit)
		}
		if id == "" {
			id = utils.GenerateUUID()
		}

		plan.Matched = append(plan.Matched, Pair{
			SyncID:        id,
			Service:       s,
			Vault:         *hit,
			NeedsBackfill: true,
		})
		matchedService[s.LocalID] = true
		matchedVault[hit.LocalID] = true
		usedVault[hit.LocalID] = true
		paired[id] = true
	}

	// 3. the remainder is new, unless the note is the stranded half of an
	// earlier pass that already recorded both sides. Re-creating those
	// would resurrect a note its pair deletion is about to remove.
	for _, s := range service {
		if matchedService[s.LocalID] {
			continue
		}
		if entry, ok := entries[metaID(s)]; ok && recordedBoth(entry) {
			continue
		}
		plan.NewService = append(plan.NewService, s)
	}
	for _, v := range vault {
		if matchedVault[v.LocalID] {
			continue
		}
		if entry, ok := entries[metaID(v)]; ok && recordedBoth(entry) {
			continue
		}
		plan.NewVault = append(plan.NewVault, v)
	}

	plan.Deletions = detectDeletions(entries, serviceByID, vaultByID)
	plan.Moves = detectMoves(plan.Matched, entries)

	return plan
}

func recordedBoth(e database.StateEntry) bool {
	return e.Service.LocalID != "" && e.Vault.LocalID != ""
}

// detectDeletions compares the state store against the current identity
// sets. A sync id recorded on a side but absent from it now means the
// user deleted that copy.
func detectDeletions(entries map[string]database.StateEntry, serviceByID, vaultByID map[string]Note) []Deletion {
	var ret []Deletion

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entry := entries[id]
		_, onService := serviceByID[id]
		_, onVault := vaultByID[id]

		goneService := entry.Service.LocalID != "" && !onService
		goneVault := entry.Vault.LocalID != "" && !onVault

		switch {
		case goneService && onVault:
			v := vaultByID[id]
			ret = append(ret, Deletion{SyncID: id, DeletedOn: SideService, Counterpart: &v, Entry: entry})
		case goneVault && onService:
			s := serviceByID[id]
			ret = append(ret, Deletion{SyncID: id, DeletedOn: SideVault, Counterpart: &s, Entry: entry})
		case goneService || goneVault:
			// resolvable on neither side; only the state entry remains
			side := SideService
			if goneVault && !goneService {
				side = SideVault
			}
			ret = append(ret, Deletion{SyncID: id, DeletedOn: side, Entry: entry})
		}
	}

	return ret
}

// detectMoves mirrors container changes. When both sides moved the same
// note to different places in one interval there is no side to trust, so
// the pair is left alone until the next pass.
func detectMoves(matched []Pair, entries map[string]database.StateEntry) []Move {
	var ret []Move

	for _, p := range matched {
		entry, ok := entries[p.SyncID]
		if !ok || !recordedBoth(entry) {
			continue
		}

		serviceMoved := p.Service.Container != entry.Service.Container
		vaultMoved := p.Vault.Container != entry.Vault.Container

		switch {
		case serviceMoved && vaultMoved:
			continue
		case serviceMoved && p.Vault.Container != p.Service.Container:
			ret = append(ret, Move{
				SyncID:       p.SyncID,
				MovedOn:      SideService,
				Target:       p.Vault,
				NewContainer: p.Service.Container,
				Entry:        entry,
			})
		case vaultMoved && p.Service.Container != p.Vault.Container:
			ret = append(ret, Move{
				SyncID:       p.SyncID,
				MovedOn:      SideVault,
				Target:       p.Service,
				NewContainer: p.Vault.Container,
				Entry:        entry,
			})
		}
	}

	return ret
}
