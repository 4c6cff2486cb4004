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
	"os"
	"strconv"
	"time"

	"github.com/gorf/notebridge/pkg/cli/client"
	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/output"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/sync"
	"github.com/gorf/notebridge/pkg/cli/upgrade"
	"github.com/gorf/notebridge/pkg/cli/vault"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// notebookCacheTTL bounds how stale the notebook path lookup may get
// within a single invocation
const notebookCacheTTL = 5 * time.Minute

var example = `
  # preview what a pass would do
  notebridge sync

  # apply the changes
  notebridge sync --force`

var (
	forceFlag          bool
	yesFlag            bool
	workersFlag        int
	serviceToVaultFlag bool
	vaultToServiceFlag bool
	bidirectionalFlag  bool
)

// NewCmd returns a new sync command
func NewCmd(ctx context.NotebridgeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Reconcile the note service with the vault",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&forceFlag, "force", "f", false, "apply the plan instead of previewing it")
	f.BoolVarP(&yesFlag, "yes", "y", false, "confirm destructive phases without prompting")
	f.IntVarP(&workersFlag, "workers", "w", 0, "number of concurrent workers (defaults to config)")
	f.BoolVar(&serviceToVaultFlag, "service-to-vault", false, "only write to the vault")
	f.BoolVar(&vaultToServiceFlag, "vault-to-service", false, "only write to the service")
	f.BoolVar(&bidirectionalFlag, "bidirectional", false, "sync both ways (the default)")

	return cmd
}

// Options configure a sync pass
type Options struct {
	Force     bool
	Yes       bool
	Direction sync.Direction
	Workers   int
}

func parseDirection() (sync.Direction, error) {
	set := 0
	for _, f := range []bool{serviceToVaultFlag, vaultToServiceFlag, bidirectionalFlag} {
		if f {
			set++
		}
	}
	if set > 1 {
		return sync.Bidirectional, errors.New("only one direction flag may be given")
	}

	switch {
	case serviceToVaultFlag:
		return sync.ServiceToVault, nil
	case vaultToServiceFlag:
		return sync.VaultToService, nil
	}

	return sync.Bidirectional, nil
}

// applyRules drops notes that live in skipped containers
func applyRules(notes []reconcile.Note, include func(string) bool) []reconcile.Note {
	ret := make([]reconcile.Note, 0, len(notes))
	for _, n := range notes {
		if !include(n.Container) {
			continue
		}
		ret = append(ret, n)
	}

	return ret
}

// Snapshot lists both sides, honoring skip rules
func Snapshot(ctx stdctx.Context, nctx context.NotebridgeCtx, svc sync.Service, v sync.Vault) ([]reconcile.Note, []reconcile.Note, error) {
	serviceNotes, err := svc.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "listing the service")
	}

	vaultNotes, err := v.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "listing the vault")
	}

	serviceNotes = applyRules(serviceNotes, func(c string) bool {
		return nctx.Rules.Include(nctx.Rules.ForService(c))
	})
	vaultNotes = applyRules(vaultNotes, func(c string) bool {
		return nctx.Rules.Include(nctx.Rules.ForVault(c))
	})

	return serviceNotes, vaultNotes, nil
}

// NewSides builds the two side implementations from the runtime context
func NewSides(nctx context.NotebridgeCtx) (sync.Service, sync.Vault) {
	cache := client.NewNotebookCache(nctx.Clock, notebookCacheTTL)
	svc := sync.NewService(nctx, cache)
	v := sync.NewVault(vault.New(nctx.VaultPath))

	return svc, v
}

// Pass runs a single reconciliation pass. A preview prints the plan
// without touching either side.
func Pass(ctx stdctx.Context, nctx context.NotebridgeCtx, opts Options) error {
	if nctx.APIToken == "" {
		return errors.New("no API token. Run `notebridge login` or set NOTEBRIDGE_API_TOKEN")
	}
	if nctx.VaultPath == "" {
		return errors.New("no vault path configured")
	}

	svc, v := NewSides(nctx)

	serviceNotes, vaultNotes, err := Snapshot(ctx, nctx, svc, v)
	if err != nil {
		return err
	}

	entries, err := database.ListStateEntries(nctx.DB)
	if err != nil {
		return errors.Wrap(err, "listing sync state")
	}

	plan := reconcile.Reconcile(serviceNotes, vaultNotes, entries)
	output.Plan(plan)

	if !opts.Force {
		log.Info("preview only. Run with --force to apply\n")
		return nil
	}

	if opts.Workers == 0 {
		opts.Workers = nctx.Workers
	}

	var decisions sync.DecisionSource
	if opts.Yes {
		decisions = sync.PolicyDecisions{AcceptPhases: true}
	} else {
		decisions = sync.PromptDecisions{In: os.Stdin}
	}

	e := &sync.Executor{
		Service:   svc,
		Vault:     v,
		DB:        nctx.DB,
		Decisions: decisions,
		Clock:     nctx.Clock,
		Rules:     nctx.Rules,
		Direction: opts.Direction,
		Workers:   opts.Workers,
	}

	summary, err := e.Run(ctx, plan)
	output.Summary(summary)
	if err != nil {
		return errors.Wrap(err, "running the pass")
	}

	nowStr := strconv.FormatInt(nctx.Clock.Now().Unix(), 10)
	if err := database.UpsertSystem(nctx.DB, consts.SystemLastSyncAt, nowStr); err != nil {
		return errors.Wrap(err, "recording last sync time")
	}

	return nil
}

func newRun(ctx context.NotebridgeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		direction, err := parseDirection()
		if err != nil {
			return err
		}

		opts := Options{
			Force:     forceFlag,
			Yes:       yesFlag,
			Direction: direction,
			Workers:   workersFlag,
		}

		if err := Pass(cmd.Context(), ctx, opts); err != nil {
			return err
		}

		if err := upgrade.Check(cmd.Context(), ctx); err != nil {
			log.Debug("checking for upgrade: %s\n", err.Error())
		}

		return nil
	}
}
