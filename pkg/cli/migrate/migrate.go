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

// Package migrate brings the local database schema up to date. Migrations
// are additive so that state files written by newer versions remain
// readable by older ones.
package migrate

import (
	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/pkg/errors"
)

type migration struct {
	name string
	run  func(db *database.DB) error
}

// sequence is the list of migrations in the order they were introduced.
// The schema version in the system table is the number of migrations
// that have been applied.
var sequence = []migration{
	{
		name: "add-recorded-at-index",
		run: func(db *database.DB) error {
			_, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_state_recorded_at ON sync_state (recorded_at)")
			return err
		},
	},
}

// Run applies all migrations that have not been applied yet
func Run(ctx context.NotebridgeCtx) error {
	db := ctx.DB

	var version int
	if err := database.GetSystem(db, consts.SystemSchema, &version); err != nil {
		return errors.Wrap(err, "getting schema version")
	}

	for i := version; i < len(sequence); i++ {
		m := sequence[i]
		log.Debug("running migration %s\n", m.name)

		if err := m.run(db); err != nil {
			return errors.Wrapf(err, "running migration %s", m.name)
		}

		if err := database.UpsertSystem(db, consts.SystemSchema, i+1); err != nil {
			return errors.Wrapf(err, "updating schema version to %d", i+1)
		}
	}

	return nil
}
