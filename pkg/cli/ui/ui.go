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

// Package ui renders duplicate pairs and content diffs for interactive
// resolution
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/normalize"
	"github.com/gorf/notebridge/pkg/cli/utils/diff"
)

const previewLimit = 2000

func truncate(s string) string {
	if len(s) <= previewLimit {
		return s
	}

	return s[:previewLimit] + "\n..."
}

// RenderDuplicate prints a duplicate pair with a line diff of the two
// bodies so the user can pick the copy to keep
func RenderDuplicate(pair dedupe.Pair) {
	log.Plainf("%s duplicate (title %.0f%%, content %.0f%%)\n",
		pair.Kind, pair.TitleRatio*100, pair.ContentRatio*100)
	log.Plainf("service: %s (%s)\n", pair.Service.Title, pair.Service.LocalID)
	log.Plainf("vault:   %s (%s)\n", pair.Vault.Title, pair.Vault.LocalID)

	RenderDiff(normalize.Normalize(pair.Service.Body), normalize.Normalize(pair.Vault.Body))
}

// RenderDiff prints a line-by-line diff, deletions in red and insertions
// in green
func RenderDiff(left, right string) {
	for _, d := range diff.Do(truncate(left)+"\n", truncate(right)+"\n") {
		lines := strings.Split(strings.TrimRight(d.Text, "\n"), "\n")

		for _, line := range lines {
			switch d.Type {
			case diff.DiffDelete:
				fmt.Fprintf(color.Output, "%s\n", log.ColorRed.Sprintf("- %s", line))
			case diff.DiffInsert:
				fmt.Fprintf(color.Output, "%s\n", log.ColorGreen.Sprintf("+ %s", line))
			default:
				fmt.Fprintf(color.Output, "  %s\n", line)
			}
		}
	}
}
