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

package reconcile

import (
	"testing"
	"time"

	"github.com/gorf/notebridge/pkg/assert"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/syncmeta"
	"github.com/gorf/notebridge/pkg/cli/utils"
)

var (
	t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func rec(id string, at time.Time) *syncmeta.Record {
	return &syncmeta.Record{ID: id, Time: at, Source: syncmeta.SourceService, Version: 1}
}

func entry(id, serviceID, serviceContainer, vaultPath, vaultContainer string) database.StateEntry {
	return database.StateEntry{
		SyncID:     id,
		Service:    database.SideSnapshot{LocalID: serviceID, Container: serviceContainer},
		Vault:      database.SideSnapshot{LocalID: vaultPath, Container: vaultContainer},
		RecordedAt: t0,
	}
}

func TestReconcileIdentityMatch(t *testing.T) {
	id := utils.GenerateUUID()
	service := []Note{
		{LocalID: "svc-1", Title: "plan", Body: "alpha", ModifiedAt: t0, Meta: rec(id, t0)},
	}
	vault := []Note{
		{LocalID: "plan.md", Title: "plan", Body: "totally different", ModifiedAt: t0, Meta: rec(id, t0)},
	}

	plan := Reconcile(service, vault, nil)

	assert.Equal(t, len(plan.Matched), 1, "matched count mismatch")
	assert.Equal(t, plan.Matched[0].SyncID, id, "sync id mismatch")
	assert.Equal(t, plan.Matched[0].NeedsBackfill, false, "backfill mismatch")
	assert.Equal(t, len(plan.NewService), 0, "new service count mismatch")
	assert.Equal(t, len(plan.NewVault), 0, "new vault count mismatch")
}

func TestReconcileHashFallback(t *testing.T) {
	t.Run("same content matches and reuses recorded id", func(t *testing.T) {
		id := utils.GenerateUUID()
		service := []Note{
			{LocalID: "svc-1", Title: "plan", Body: "# Plan\n\n- one", ModifiedAt: t0, Meta: rec(id, t0)},
		}
		vault := []Note{
			{LocalID: "plan.md", Title: "plan", Body: "Plan\n\none", ModifiedAt: t0},
		}

		plan := Reconcile(service, vault, nil)

		assert.Equal(t, len(plan.Matched), 1, "matched count mismatch")
		assert.Equal(t, plan.Matched[0].SyncID, id, "sync id mismatch")
		assert.Equal(t, plan.Matched[0].NeedsBackfill, true, "backfill mismatch")
	})

	t.Run("neither side tagged gets fresh id", func(t *testing.T) {
		service := []Note{
			{LocalID: "svc-1", Title: "plan", Body: "same body", ModifiedAt: t0},
		}
		vault := []Note{
			{LocalID: "plan.md", Title: "plan", Body: "same body", ModifiedAt: t0},
		}

		plan := Reconcile(service, vault, nil)

		assert.Equal(t, len(plan.Matched), 1, "matched count mismatch")
		assert.Equal(t, utils.IsUUID(plan.Matched[0].SyncID), true, "sync id not a uuid")
		assert.Equal(t, plan.Matched[0].NeedsBackfill, true, "backfill mismatch")
	})

	t.Run("distinct recorded ids never hash match", func(t *testing.T) {
		service := []Note{
			{LocalID: "svc-1", Title: "plan", Body: "same body", ModifiedAt: t0, Meta: rec(utils.GenerateUUID(), t0)},
		}
		vault := []Note{
			{LocalID: "plan.md", Title: "plan", Body: "same body", ModifiedAt: t0, Meta: rec(utils.GenerateUUID(), t0)},
		}

		plan := Reconcile(service, vault, nil)

		assert.Equal(t, len(plan.Matched), 0, "matched count mismatch")
		assert.Equal(t, len(plan.NewService), 1, "new service count mismatch")
		assert.Equal(t, len(plan.NewVault), 1, "new vault count mismatch")
	})

	t.Run("empty bodies never hash match", func(t *testing.T) {
		service := []Note{
			{LocalID: "svc-1", Title: "scratch", Body: "   \n", ModifiedAt: t0},
		}
		vault := []Note{
			{LocalID: "scratch.md", Title: "scratch", Body: "", ModifiedAt: t0},
		}

		plan := Reconcile(service, vault, nil)

		assert.Equal(t, len(plan.Matched), 0, "matched count mismatch")
		assert.Equal(t, len(plan.NewService), 1, "new service count mismatch")
		assert.Equal(t, len(plan.NewVault), 1, "new vault count mismatch")
	})
}

func TestReconcileStrandedHalf(t *testing.T) {
	id := utils.GenerateUUID()
	// recorded on both sides, currently present on the service only and
	// unmatched. It must not be treated as new.
	service := []Note{
		{LocalID: "svc-1", Title: "plan", Body: "alpha", ModifiedAt: t0, Meta: rec(id, t0)},
	}
	entries := map[string]database.StateEntry{
		id: entry(id, "svc-1", "work", "plan.md", "work"),
	}

	plan := Reconcile(service, nil, entries)

	assert.Equal(t, len(plan.NewService), 0, "new service count mismatch")
	assert.Equal(t, len(plan.Deletions), 1, "deletion count mismatch")
	assert.Equal(t, plan.Deletions[0].DeletedOn, SideVault, "deleted side mismatch")
	assert.Equal(t, plan.Deletions[0].Counterpart.LocalID, "svc-1", "counterpart mismatch")
}

func TestReconcileDeletions(t *testing.T) {
	t.Run("gone from vault", func(t *testing.T) {
		id := utils.GenerateUUID()
		service := []Note{
			{LocalID: "svc-1", Title: "plan", Body: "alpha", ModifiedAt: t0, Meta: rec(id, t0)},
		}
		entries := map[string]database.StateEntry{
			id: entry(id, "svc-1", "", "plan.md", ""),
		}

		plan := Reconcile(service, nil, entries)

		assert.Equal(t, len(plan.Deletions), 1, "deletion count mismatch")
		d := plan.Deletions[0]
		assert.Equal(t, d.DeletedOn, SideVault, "deleted side mismatch")
		assert.Equal(t, d.Counterpart.LocalID, "svc-1", "counterpart mismatch")
	})

	t.Run("gone from both drops entry only", func(t *testing.T) {
		id := utils.GenerateUUID()
		entries := map[string]database.StateEntry{
			id: entry(id, "svc-1", "", "plan.md", ""),
		}

		plan := Reconcile(nil, nil, entries)

		assert.Equal(t, len(plan.Deletions), 1, "deletion count mismatch")
		assert.Equal(t, plan.Deletions[0].Counterpart == nil, true, "counterpart mismatch")
	})

	t.Run("half recorded entry is not a deletion", func(t *testing.T) {
		id := utils.GenerateUUID()
		e := entry(id, "svc-1", "", "", "")
		entries := map[string]database.StateEntry{id: e}

		plan := Reconcile(nil, nil, entries)

		assert.Equal(t, len(plan.Deletions), 1, "deletion count mismatch")
		assert.Equal(t, plan.Deletions[0].DeletedOn, SideService, "deleted side mismatch")
		assert.Equal(t, plan.Deletions[0].Counterpart == nil, true, "counterpart mismatch")
	})
}

func TestReconcileMoves(t *testing.T) {
	id := utils.GenerateUUID()

	note := func(localID, container string) Note {
		return Note{LocalID: localID, Title: "plan", Body: "alpha", Container: container, ModifiedAt: t0, Meta: rec(id, t0)}
	}

	t.Run("service moved mirrors onto vault", func(t *testing.T) {
		entries := map[string]database.StateEntry{
			id: entry(id, "svc-1", "work", "work/plan.md", "work"),
		}

		plan := Reconcile(
			[]Note{note("svc-1", "archive")},
			[]Note{note("work/plan.md", "work")},
			entries,
		)

		assert.Equal(t, len(plan.Moves), 1, "move count mismatch")
		m := plan.Moves[0]
		assert.Equal(t, m.MovedOn, SideService, "moved side mismatch")
		assert.Equal(t, m.Target.LocalID, "work/plan.md", "target mismatch")
		assert.Equal(t, m.NewContainer, "archive", "container mismatch")
	})

	t.Run("both moved leaves pair alone", func(t *testing.T) {
		entries := map[string]database.StateEntry{
			id: entry(id, "svc-1", "work", "work/plan.md", "work"),
		}

		plan := Reconcile(
			[]Note{note("svc-1", "archive")},
			[]Note{note("notes/plan.md", "notes")},
			entries,
		)

		assert.Equal(t, len(plan.Moves), 0, "move count mismatch")
	})

	t.Run("no state entry no move", func(t *testing.T) {
		plan := Reconcile(
			[]Note{note("svc-1", "archive")},
			[]Note{note("work/plan.md", "work")},
			nil,
		)

		assert.Equal(t, len(plan.Moves), 0, "move count mismatch")
	})
}

func TestDecide(t *testing.T) {
	id := utils.GenerateUUID()

	note := func(modifiedAt time.Time, meta *syncmeta.Record) Note {
		return Note{LocalID: "x", Body: "alpha", ModifiedAt: modifiedAt, Meta: meta}
	}

	testCases := []struct {
		name     string
		service  Note
		vault    Note
		expected Action
	}{
		{
			name:     "neither changed",
			service:  note(t0, rec(id, t0)),
			vault:    note(t0, rec(id, t0)),
			expected: ActionNone,
		},
		{
			name:     "service changed",
			service:  note(t1, rec(id, t0)),
			vault:    note(t0, rec(id, t0)),
			expected: ActionServiceToVault,
		},
		{
			name:     "vault changed",
			service:  note(t0, rec(id, t0)),
			vault:    note(t1, rec(id, t0)),
			expected: ActionVaultToService,
		},
		{
			name:     "both changed",
			service:  note(t1, rec(id, t0)),
			vault:    note(t1, rec(id, t0)),
			expected: ActionConflict,
		},
		{
			name:     "missing record counts as changed",
			service:  note(t0, nil),
			vault:    note(t0, rec(id, t0)),
			expected: ActionServiceToVault,
		},
		{
			name:     "both records missing",
			service:  note(t0, nil),
			vault:    note(t0, nil),
			expected: ActionConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(Pair{SyncID: id, Service: tc.service, Vault: tc.vault})

			assert.Equal(t, got, tc.expected, "action mismatch")
		})
	}
}
