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

// Package sync executes a reconciliation plan against the two sides,
// recording the outcome of every operation in the state store.
package sync

import (
	stdctx "context"
	"time"

	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
)

// Service is the note service side of a sync
type Service interface {
	// List snapshots every live note. Notes in the holding notebook are
	// not part of the snapshot.
	List(ctx stdctx.Context) ([]reconcile.Note, error)
	// Create makes a new note and returns its local id. at pins the
	// note's modification time.
	Create(ctx stdctx.Context, container, title, body string, at time.Time) (string, error)
	Update(ctx stdctx.Context, localID, title, body string, at time.Time) error
	// Move relocates a note to another container, creating it as needed
	Move(ctx stdctx.Context, localID, container string, at time.Time) error
	// SoftDelete moves a note into the holding notebook
	SoftDelete(ctx stdctx.Context, localID string) error
	EnsureContainer(ctx stdctx.Context, container string) error
}

// Vault is the markdown tree side of a sync. Local ids are vault-relative
// paths, so operations that relocate a file return the new id.
type Vault interface {
	List(ctx stdctx.Context) ([]reconcile.Note, error)
	Create(ctx stdctx.Context, container, title, content, syncID string, at time.Time) (string, error)
	Update(ctx stdctx.Context, localID, content string, at time.Time) error
	Move(ctx stdctx.Context, localID, container string) (string, error)
	SoftDelete(ctx stdctx.Context, localID string) (string, error)
	EnsureFolder(ctx stdctx.Context, container string) error
}

// Phase is one stage of a sync pass. Phases always run in the same
// order: deletions, moves, propagation, then creations.
type Phase string

const (
	// PhaseDeletions mirrors deletions into the other side's holding area
	PhaseDeletions Phase = "deletions"
	// PhaseMoves mirrors container changes
	PhaseMoves Phase = "moves"
	// PhasePropagate brings matched pairs up to date
	PhasePropagate Phase = "propagation"
	// PhaseCreateVault writes service-only notes into the vault
	PhaseCreateVault Phase = "create-on-vault"
	// PhaseCreateService writes vault-only notes onto the service
	PhaseCreateService Phase = "create-on-service"
)

// Direction restricts which way content may flow during the propagation
// and creation phases
type Direction int

const (
	// Bidirectional syncs both ways
	Bidirectional Direction = iota
	// ServiceToVault only writes to the vault
	ServiceToVault
	// VaultToService only writes to the service
	VaultToService
)

// Choice is a resolution for a duplicate pair
type Choice int

const (
	// ChoiceSkip leaves the pair alone
	ChoiceSkip Choice = iota
	// ChoiceKeepService keeps the service copy and holds the vault copy
	ChoiceKeepService
	// ChoiceKeepVault keeps the vault copy and holds the service copy
	ChoiceKeepVault
)

// DecisionSource supplies the user decisions a pass needs. Destructive
// phases are confirmed through it before they run.
type DecisionSource interface {
	ConfirmPhase(phase Phase, n int) (bool, error)
	ResolveDuplicate(pair dedupe.Pair) (Choice, error)
}

// Status is the outcome of a single note operation
type Status int

const (
	// StatusSuccess is an operation that went through
	StatusSuccess Status = iota
	// StatusRetried is an operation that went through after retrying
	StatusRetried
	// StatusSkipped is an operation that was not attempted
	StatusSkipped
	// StatusFailed is an operation that failed after any retries
	StatusFailed
	// StatusConflict is a pair changed on both sides, reported untouched
	StatusConflict
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRetried:
		return "retried"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusConflict:
		return "conflict"
	}

	return "unknown"
}

// Result describes what happened to a single note during a phase
type Result struct {
	Phase  Phase
	Op     string
	SyncID string
	Title  string
	Status Status
	Reason string
}

// Summary aggregates the results of a pass
type Summary struct {
	Created   int
	Updated   int
	Deleted   int
	Moved     int
	Skipped   int
	Failed    int
	Conflicts int
	Results   []Result
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)

	switch r.Status {
	case StatusSkipped:
		s.Skipped++
		return
	case StatusFailed:
		s.Failed++
		return
	case StatusConflict:
		s.Conflicts++
		return
	}

	switch r.Op {
	case opCreate:
		s.Created++
	case opUpdate, opBackfill:
		s.Updated++
	case opDelete, opDrop:
		s.Deleted++
	case opMove:
		s.Moved++
	}
}

const (
	opCreate   = "create"
	opUpdate   = "update"
	opDelete   = "delete"
	opDrop     = "drop-entry"
	opMove     = "move"
	opBackfill = "backfill"
)
