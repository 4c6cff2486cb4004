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

package clean

import (
	"os"

	syncmd "github.com/gorf/notebridge/pkg/cli/cmd/sync"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/output"
	"github.com/gorf/notebridge/pkg/cli/sync"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  # decide per duplicate pair
  notebridge clean

  # keep the service copy of every duplicate pair
  notebridge clean --keep service`

var keepFlag string

// NewCmd returns a new clean command
func NewCmd(ctx context.NotebridgeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clean",
		Short:   "Move duplicate notes into their side's holding area",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&keepFlag, "keep", "", "resolve every pair the same way: service or vault")

	return cmd
}

func parseKeep() (sync.DecisionSource, error) {
	switch keepFlag {
	case "":
		return sync.PromptDecisions{In: os.Stdin}, nil
	case "service":
		return sync.PolicyDecisions{Keep: sync.ChoiceKeepService}, nil
	case "vault":
		return sync.PolicyDecisions{Keep: sync.ChoiceKeepVault}, nil
	}

	return nil, errors.Errorf("unknown --keep value %s", keepFlag)
}

func newRun(ctx context.NotebridgeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		decisions, err := parseKeep()
		if err != nil {
			return err
		}

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

		e := &sync.Executor{
			Service:   svc,
			Vault:     v,
			DB:        ctx.DB,
			Decisions: decisions,
			Clock:     ctx.Clock,
			Rules:     ctx.Rules,
		}

		summary, err := e.ResolveDuplicates(cmd.Context(), report)
		output.Summary(summary)
		if err != nil {
			return errors.Wrap(err, "resolving duplicates")
		}

		return nil
	}
}
