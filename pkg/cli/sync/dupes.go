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

package sync

import (
	stdctx "context"

	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/pkg/errors"
)

// ResolveDuplicates walks a duplicate report pair by pair, asking the
// decision source which copy to keep and moving the other into its
// side's holding area. Defects are reported but never auto-repaired;
// picking the surviving note is not a call the tool can make.
func (e *Executor) ResolveDuplicates(ctx stdctx.Context, report dedupe.Report) (Summary, error) {
	var summary Summary

	for _, d := range report.Defects {
		log.Warnf("sync id %s appears on %d notes on the %s side; fix by hand\n", d.SyncID, len(d.Notes), d.Side)
	}

	for _, pair := range report.Pairs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		choice, err := e.Decisions.ResolveDuplicate(pair)
		if err != nil {
			return summary, errors.Wrap(err, "resolving duplicate")
		}

		var discarded reconcile.Note
		switch choice {
		case ChoiceKeepService:
			discarded = pair.Vault
			_, err = e.Vault.SoftDelete(ctx, discarded.LocalID)
		case ChoiceKeepVault:
			discarded = pair.Service
			err = e.Service.SoftDelete(ctx, discarded.LocalID)
		default:
			summary.add(Result{Op: opDelete, Title: pair.Service.Title, Status: StatusSkipped, Reason: "kept both"})
			continue
		}
		if err != nil {
			summary.add(Result{Op: opDelete, Title: discarded.Title, Status: StatusFailed, Reason: err.Error()})
			continue
		}

		if discarded.Meta != nil {
			e.dropEntry(discarded.Meta.ID)
		}

		summary.add(Result{Op: opDelete, Title: discarded.Title, Status: StatusSuccess})
	}

	return summary, nil
}

// dropEntry removes the state entry recorded for a discarded note, if any
func (e *Executor) dropEntry(syncID string) {
	entry, err := database.GetStateEntry(e.DB, syncID)
	if errors.Cause(err) == database.ErrStateEntryNotFound {
		return
	}
	if err != nil {
		log.Warnf("looking up state entry %s: %v\n", syncID, err)
		return
	}

	if err := entry.Delete(e.DB); err != nil {
		log.Warnf("removing state entry %s: %v\n", syncID, err)
	}
}
