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

package dupes

import (
	syncmd "github.com/gorf/notebridge/pkg/cli/cmd/sync"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/output"
	"github.com/spf13/cobra"
)

// NewCmd returns a new dupes command
func NewCmd(ctx context.NotebridgeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Report likely duplicate notes across the two sides",
		RunE:  newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotebridgeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		svc, v := syncmd.NewSides(ctx)

		serviceNotes, vaultNotes, err := syncmd.Snapshot(cmd.Context(), ctx, svc, v)
		if err != nil {
			return err
		}

		report := dedupe.Detect(serviceNotes, vaultNotes)
		if report.Empty() {
			log.Success("no duplicates found\n")
			return nil
		}

		output.DuplicateReport(report)

		return nil
	}
}
