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

package database

import (
	"testing"
	"time"

	"github.com/gorf/notebridge/pkg/assert"
	"github.com/pkg/errors"
)

func TestStateEntryUpsert(t *testing.T) {
	db := InitTestMemoryDB(t)

	e := StateEntry{
		SyncID:     "u1",
		Service:    SideSnapshot{LocalID: "a1", Title: "Project Plan", Container: "Work"},
		Vault:      SideSnapshot{LocalID: "Work/Project Plan.md", Title: "Project Plan", Container: "Work"},
		RecordedAt: time.Unix(1515199943, 0).UTC(),
	}
	if err := e.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting entry"))
	}

	got, err := GetStateEntry(db, "u1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting entry"))
	}
	assert.DeepEqual(t, got, e, "entry mismatch")

	// upserting again with new values replaces the row instead of duplicating it
	e.Service.Container = "Work/2025"
	e.RecordedAt = time.Unix(1515200000, 0).UTC()
	if err := e.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting entry"))
	}

	var count int
	MustScan(t, "counting entries", db.QueryRow("SELECT count(*) FROM sync_state"), &count)
	assert.Equal(t, count, 1, "entry count mismatch")

	got, err = GetStateEntry(db, "u1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting updated entry"))
	}
	assert.Equal(t, got.Service.Container, "Work/2025", "container mismatch")
	assert.Equal(t, got.RecordedAt, time.Unix(1515200000, 0).UTC(), "recorded_at mismatch")
}

func TestStateEntryDelete(t *testing.T) {
	db := InitTestMemoryDB(t)

	e := StateEntry{SyncID: "u1"}
	if err := e.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting entry"))
	}

	if err := e.Delete(db); err != nil {
		t.Fatal(errors.Wrap(err, "deleting entry"))
	}

	_, err := GetStateEntry(db, "u1")
	assert.Equal(t, errors.Cause(err), ErrStateEntryNotFound, "error mismatch")
}

func TestListStateEntries(t *testing.T) {
	db := InitTestMemoryDB(t)

	e1 := StateEntry{SyncID: "u1", Service: SideSnapshot{LocalID: "a1"}}
	e2 := StateEntry{SyncID: "u2", Service: SideSnapshot{LocalID: "a2"}}
	if err := e1.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting entry 1"))
	}
	if err := e2.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting entry 2"))
	}

	entries, err := ListStateEntries(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing entries"))
	}

	assert.Equal(t, len(entries), 2, "entry count mismatch")
	assert.Equal(t, entries["u1"].Service.LocalID, "a1", "entry 1 mismatch")
	assert.Equal(t, entries["u2"].Service.LocalID, "a2", "entry 2 mismatch")
}
