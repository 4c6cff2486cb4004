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

package dedupe

import (
	"testing"
	"time"

	"github.com/gorf/notebridge/pkg/assert"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/syncmeta"
	"github.com/gorf/notebridge/pkg/cli/utils"
)

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func tagged(localID, title, body, id string) reconcile.Note {
	return reconcile.Note{
		LocalID:    localID,
		Title:      title,
		Body:       body,
		ModifiedAt: at,
		Meta:       &syncmeta.Record{ID: id, Time: at, Source: syncmeta.SourceService, Version: 1},
	}
}

func untagged(localID, title, body string) reconcile.Note {
	return reconcile.Note{LocalID: localID, Title: title, Body: body, ModifiedAt: at}
}

func TestDetectDefects(t *testing.T) {
	id := utils.GenerateUUID()
	service := []reconcile.Note{
		tagged("svc-1", "plan", "alpha", id),
		tagged("svc-2", "plan copy", "beta", id),
	}

	report := Detect(service, nil)

	assert.Equal(t, len(report.Defects), 1, "defect count mismatch")
	assert.Equal(t, report.Defects[0].Side, reconcile.SideService, "side mismatch")
	assert.Equal(t, report.Defects[0].SyncID, id, "sync id mismatch")
	assert.Equal(t, len(report.Defects[0].Notes), 2, "note count mismatch")
}

func TestDetectSameContent(t *testing.T) {
	t.Run("untagged copies reported", func(t *testing.T) {
		service := []reconcile.Note{untagged("svc-1", "groceries", "- milk\n- eggs")}
		vault := []reconcile.Note{untagged("groceries.md", "groceries", "milk\neggs")}

		report := Detect(service, vault)

		assert.Equal(t, len(report.Pairs), 1, "pair count mismatch")
		assert.Equal(t, report.Pairs[0].Kind, KindSameContent, "kind mismatch")
	})

	t.Run("shared sync id is not a duplicate", func(t *testing.T) {
		id := utils.GenerateUUID()
		service := []reconcile.Note{tagged("svc-1", "groceries", "milk", id)}
		vault := []reconcile.Note{tagged("groceries.md", "groceries", "milk", id)}

		report := Detect(service, vault)

		assert.Equal(t, report.Empty(), true, "report not empty")
	})

	t.Run("empty bodies excluded", func(t *testing.T) {
		service := []reconcile.Note{untagged("svc-1", "scratch", "")}
		vault := []reconcile.Note{untagged("scratch.md", "scratch", "  \n")}

		report := Detect(service, vault)

		assert.Equal(t, report.Empty(), true, "report not empty")
	})
}

func TestDetectFuzzy(t *testing.T) {
	t.Run("near exact content", func(t *testing.T) {
		service := []reconcile.Note{untagged("svc-1", "meeting notes", "discussed the roadmap for the second quarter and headcount")}
		vault := []reconcile.Note{untagged("meeting notes.md", "meeting notes", "discussed the roadmap for the second quarter and headcounts")}

		report := Detect(service, vault)

		assert.Equal(t, len(report.Pairs), 1, "pair count mismatch")
		assert.Equal(t, report.Pairs[0].Kind, KindNearExact, "kind mismatch")
		assert.True(t, report.Pairs[0].ContentRatio >= 0.9, "content ratio too low")
	})

	t.Run("similar title different body", func(t *testing.T) {
		base := "the pragmatic programmer, the goal, spin selling, peopleware, "
		service := []reconcile.Note{untagged("svc-1", "reading list", base+"deep work and flow")}
		vault := []reconcile.Note{untagged("reading list.md", "reading list", base+"refactoring basics")}

		report := Detect(service, vault)

		assert.Equal(t, len(report.Pairs), 1, "pair count mismatch")
		assert.Equal(t, report.Pairs[0].Kind, KindSimilarTitle, "kind mismatch")
	})

	t.Run("unrelated notes not reported", func(t *testing.T) {
		service := []reconcile.Note{untagged("svc-1", "groceries", "milk and eggs")}
		vault := []reconcile.Note{untagged("standup.md", "standup", "what I did yesterday")}

		report := Detect(service, vault)

		assert.Equal(t, report.Empty(), true, "report not empty")
	})

	t.Run("similar title dissimilar body not reported", func(t *testing.T) {
		service := []reconcile.Note{untagged("svc-1", "journal", "aaaa aaaa aaaa aaaa aaaa aaaa")}
		vault := []reconcile.Note{untagged("journal.md", "journal", "zzzz zzzz zzzz zzzz zzzz zzzz")}

		report := Detect(service, vault)

		assert.Equal(t, report.Empty(), true, "report not empty")
	})
}
