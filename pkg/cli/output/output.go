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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/sync"
)

// Plan prints what a sync pass would do
func Plan(plan reconcile.Plan) {
	var updates, conflicts, backfills int
	for _, p := range plan.Matched {
		if p.NeedsBackfill {
			backfills++
			continue
		}
		switch reconcile.Decide(p) {
		case reconcile.ActionServiceToVault, reconcile.ActionVaultToService:
			updates++
		case reconcile.ActionConflict:
			conflicts++
		}
	}

	log.Infof("%d pair(s) in sync, %d to update, %d to backfill\n", len(plan.Matched)-updates-conflicts-backfills, updates, backfills)
	log.Infof("%d new on the service, %d new in the vault\n", len(plan.NewService), len(plan.NewVault))
	log.Infof("%d deletion(s), %d move(s)\n", len(plan.Deletions), len(plan.Moves))
	if conflicts > 0 {
		log.Warnf("%d conflict(s) need attention:\n", conflicts)
		for _, p := range plan.Matched {
			if !p.NeedsBackfill && reconcile.Decide(p) == reconcile.ActionConflict {
				log.Plainf("both sides changed: %s (%s)\n", p.Service.Title, p.SyncID)
			}
		}
	}
}

// Summary prints the outcome of a sync pass
func Summary(s sync.Summary) {
	for _, r := range s.Results {
		switch r.Status {
		case sync.StatusFailed:
			log.Errorf("%s %s: %s\n", r.Op, r.Title, r.Reason)
		case sync.StatusSkipped:
			log.Warnf("skipped %s %s: %s\n", r.Op, r.Title, r.Reason)
		case sync.StatusConflict:
			log.Warnf("conflict %s: %s\n", r.Title, r.Reason)
		}
	}

	log.Successf("created %d, updated %d, deleted %d, moved %d\n", s.Created, s.Updated, s.Deleted, s.Moved)
	if s.Skipped > 0 || s.Failed > 0 || s.Conflicts > 0 {
		log.Warnf("skipped %d, failed %d, conflicts %d\n", s.Skipped, s.Failed, s.Conflicts)
	}
}

// DuplicateReport prints a duplicate detection report
func DuplicateReport(report dedupe.Report) {
	if report.Empty() {
		log.Success("no duplicates found\n")
		return
	}

	for _, d := range report.Defects {
		log.Warnf("sync id %s appears %d times on the %s side:\n", d.SyncID, len(d.Notes), d.Side)
		for _, n := range d.Notes {
			log.Plainf("- %s (%s)\n", n.Title, n.LocalID)
		}
	}

	for _, p := range report.Pairs {
		log.Infof("%s: %q (service) / %q (vault), title %.0f%%, content %.0f%%\n",
			p.Kind, p.Service.Title, p.Vault.Title, p.TitleRatio*100, p.ContentRatio*100)
	}
}
