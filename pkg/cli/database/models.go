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
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// ErrStateEntryNotFound is an error for a sync state entry that does not exist
var ErrStateEntryNotFound = errors.New("sync state entry not found")

// SideSnapshot is the last known location of a logical note on one side
type SideSnapshot struct {
	LocalID   string
	Title     string
	Container string
}

// StateEntry records the outcome of the last successful sync of one
// logical note on both sides. It is keyed by the sync id.
type StateEntry struct {
	SyncID     string
	Service    SideSnapshot
	Vault      SideSnapshot
	RecordedAt time.Time
}

// Upsert inserts the entry, or replaces the existing entry with the same sync id
func (e StateEntry) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO sync_state
		(sync_id, service_id, service_title, service_container, vault_path, vault_title, vault_container, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sync_id) DO UPDATE SET
		service_id = excluded.service_id,
		service_title = excluded.service_title,
		service_container = excluded.service_container,
		vault_path = excluded.vault_path,
		vault_title = excluded.vault_title,
		vault_container = excluded.vault_container,
		recorded_at = excluded.recorded_at`,
		e.SyncID, e.Service.LocalID, e.Service.Title, e.Service.Container,
		e.Vault.LocalID, e.Vault.Title, e.Vault.Container, e.RecordedAt.Unix())
	if err != nil {
		return errors.Wrapf(err, "upserting sync state for %s", e.SyncID)
	}

	return nil
}

// Delete removes the entry from the store
func (e StateEntry) Delete(db *DB) error {
	_, err := db.Exec("DELETE FROM sync_state WHERE sync_id = ?", e.SyncID)
	if err != nil {
		return errors.Wrapf(err, "deleting sync state for %s", e.SyncID)
	}

	return nil
}

// GetStateEntry looks up the entry with the given sync id
func GetStateEntry(db *DB, syncID string) (StateEntry, error) {
	var ret StateEntry
	var recordedAt int64

	err := db.QueryRow(`SELECT sync_id, service_id, service_title, service_container,
		vault_path, vault_title, vault_container, recorded_at
		FROM sync_state WHERE sync_id = ?`, syncID).
		Scan(&ret.SyncID, &ret.Service.LocalID, &ret.Service.Title, &ret.Service.Container,
			&ret.Vault.LocalID, &ret.Vault.Title, &ret.Vault.Container, &recordedAt)
	if err == sql.ErrNoRows {
		return ret, ErrStateEntryNotFound
	}
	if err != nil {
		return ret, errors.Wrapf(err, "querying sync state for %s", syncID)
	}

	ret.RecordedAt = time.Unix(recordedAt, 0).UTC()

	return ret, nil
}

// ListStateEntries returns all entries in the store, keyed by sync id
func ListStateEntries(db *DB) (map[string]StateEntry, error) {
	rows, err := db.Query(`SELECT sync_id, service_id, service_title, service_container,
		vault_path, vault_title, vault_container, recorded_at FROM sync_state`)
	if err != nil {
		return nil, errors.Wrap(err, "querying sync state entries")
	}
	defer rows.Close()

	ret := map[string]StateEntry{}
	for rows.Next() {
		var e StateEntry
		var recordedAt int64
		if err := rows.Scan(&e.SyncID, &e.Service.LocalID, &e.Service.Title, &e.Service.Container,
			&e.Vault.LocalID, &e.Vault.Title, &e.Vault.Container, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a sync state entry")
		}
		e.RecordedAt = time.Unix(recordedAt, 0).UTC()

		ret[e.SyncID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating sync state entries")
	}

	return ret, nil
}
