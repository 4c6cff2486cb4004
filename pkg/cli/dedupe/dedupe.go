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

// Package dedupe finds notes that exist more than once across the two
// sides. It only reports; resolution is always driven by the user.
package dedupe

import (
	"github.com/gorf/notebridge/pkg/cli/normalize"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/utils/diff"
)

// Similarity thresholds for the fuzzy tier
const (
	titleThreshold   = 0.8
	contentThreshold = 0.7
	exactThreshold   = 0.9
)

// Kind classifies a duplicate pair
type Kind int

const (
	// KindSameContent is an exact normalized-content match across sides
	KindSameContent Kind = iota
	// KindNearExact is a fuzzy match whose content ratio is close to one
	KindNearExact
	// KindSimilarTitle is a fuzzy match whose titles are close to equal
	KindSimilarTitle
	// KindFuzzy is a fuzzy match above the base thresholds only
	KindFuzzy
)

func (k Kind) String() string {
	switch k {
	case KindSameContent:
		return "same content"
	case KindNearExact:
		return "near exact"
	case KindSimilarTitle:
		return "similar title"
	case KindFuzzy:
		return "similar"
	}

	return "unknown"
}

// Defect is a sync id occurring on more than one note within a single
// side. The store keys on sync id, so this breaks matching and has to be
// repaired before the notes can sync.
type Defect struct {
	Side   reconcile.Side
	SyncID string
	Notes  []reconcile.Note
}

// Pair is a probable duplicate across the two sides
type Pair struct {
	Kind         Kind
	Service      reconcile.Note
	Vault        reconcile.Note
	TitleRatio   float64
	ContentRatio float64
}

// Report is the outcome of a duplicate detection pass
type Report struct {
	Defects []Defect
	Pairs   []Pair
}

// Empty reports whether the pass found nothing
func (r Report) Empty() bool {
	return len(r.Defects) == 0 && len(r.Pairs) == 0
}

func metaID(n reconcile.Note) string {
	if n.Meta == nil {
		return ""
	}

	return n.Meta.ID
}

func sideDefects(side reconcile.Side, notes []reconcile.Note) []Defect {
	byID := map[string][]reconcile.Note{}
	var order []string

	for _, n := range notes {
		id := metaID(n)
		if id == "" {
			continue
		}
		if len(byID[id]) == 0 {
			order = append(order, id)
		}
		byID[id] = append(byID[id], n)
	}

	var ret []Defect
	for _, id := range order {
		if len(byID[id]) < 2 {
			continue
		}
		ret = append(ret, Defect{Side: side, SyncID: id, Notes: byID[id]})
	}

	return ret
}

func classify(titleRatio, contentRatio float64) Kind {
	switch {
	case contentRatio >= exactThreshold:
		return KindNearExact
	case titleRatio >= exactThreshold:
		return KindSimilarTitle
	}

	return KindFuzzy
}

// Detect runs all duplicate tiers over the two snapshots. Notes already
// paired under a shared sync id are the same note, not duplicates, and
// are never reported against each other.
func Detect(service, vault []reconcile.Note) Report {
	var report Report

	report.Defects = append(report.Defects, sideDefects(reconcile.SideService, service)...)
	report.Defects = append(report.Defects, sideDefects(reconcile.SideVault, vault)...)

	type norm struct {
		note  reconcile.Note
		title string
		body  string
		hash  string
		empty bool
	}

	prep := func(notes []reconcile.Note) []norm {
		ret := make([]norm, 0, len(notes))
		for _, n := range notes {
			ret = append(ret, norm{
				note:  n,
				title: normalize.Normalize(n.Title),
				body:  normalize.Normalize(n.Body),
				hash:  normalize.Hash(n.Body),
				empty: normalize.IsEmpty(n.Body),
			})
		}
		return ret
	}

	services := prep(service)
	vaults := prep(vault)

	seen := map[string]bool{}
	pairKey := func(s, v reconcile.Note) string {
		return s.LocalID + "\x00" + v.LocalID
	}

	// exact tier: equal normalized hash without a shared recorded id
	for _, s := range services {
		if s.empty {
			continue
		}
		for _, v := range vaults {
			if v.empty || v.hash != s.hash {
				continue
			}
			if id := metaID(s.note); id != "" && id == metaID(v.note) {
				continue
			}

			seen[pairKey(s.note, v.note)] = true
			report.Pairs = append(report.Pairs, Pair{
				Kind:         KindSameContent,
				Service:      s.note,
				Vault:        v.note,
				TitleRatio:   diff.Ratio(s.title, v.title),
				ContentRatio: 1,
			})
		}
	}

	// fuzzy tier
	for _, s := range services {
		if s.empty {
			continue
		}
		for _, v := range vaults {
			if v.empty || seen[pairKey(s.note, v.note)] {
				continue
			}
			if id := metaID(s.note); id != "" && id == metaID(v.note) {
				continue
			}

			titleRatio := diff.Ratio(s.title, v.title)
			if titleRatio < titleThreshold {
				continue
			}
			contentRatio := diff.Ratio(s.body, v.body)
			if contentRatio < contentThreshold {
				continue
			}

			report.Pairs = append(report.Pairs, Pair{
				Kind:         classify(titleRatio, contentRatio),
				Service:      s.note,
				Vault:        v.note,
				TitleRatio:   titleRatio,
				ContentRatio: contentRatio,
			})
		}
	}

	return report
}
