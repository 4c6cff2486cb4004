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

package watch

import (
	stdctx "context"
	"time"

	syncmd "github.com/gorf/notebridge/pkg/cli/cmd/sync"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/sync"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

const (
	// pollInterval is how often the vault watcher scans for changes
	pollInterval = 2 * time.Second
	// debounce is how long the vault must stay quiet after a change
	// before a pass runs
	debounce = 5 * time.Second
)

var example = `
  # run a pass whenever the vault changes
  notebridge watch

  # additionally run a pass every hour
  notebridge watch --schedule "@every 1h"`

var (
	scheduleFlag string
	noVaultFlag  bool
)

// NewCmd returns a new watch command
func NewCmd(ctx context.NotebridgeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Run sync passes when the vault changes or on a schedule",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&scheduleFlag, "schedule", "", "cron spec for periodic passes")
	f.BoolVar(&noVaultFlag, "no-vault-watch", false, "disable the vault file watcher")

	return cmd
}

// trigger requests a pass. Requests arriving while one is already
// pending coalesce.
func trigger(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func watchVault(ctx stdctx.Context, vaultPath string, ch chan struct{}) error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Create, watcher.Write, watcher.Remove, watcher.Rename, watcher.Move)

	if err := w.AddRecursive(vaultPath); err != nil {
		return errors.Wrap(err, "watching the vault")
	}

	go func() {
		var timer *time.Timer

		for {
			select {
			case <-ctx.Done():
				w.Close()
				return
			case e := <-w.Event:
				log.Debug("vault change: %s\n", e.String())
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() { trigger(ch) })
			case err := <-w.Error:
				log.Warnf("watching the vault: %v\n", err)
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		if err := w.Start(pollInterval); err != nil {
			log.Errorf("starting the vault watcher: %v\n", err)
		}
	}()

	return nil
}

func runPasses(ctx stdctx.Context, nctx context.NotebridgeCtx, ch chan struct{}) {
	opts := syncmd.Options{
		Force:     true,
		Yes:       true,
		Direction: sync.Bidirectional,
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			log.Info("running a pass\n")
			if err := syncmd.Pass(ctx, nctx, opts); err != nil {
				log.Errorf("pass failed: %v\n", err)
			}
		}
	}
}

func newRun(ctx context.NotebridgeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if noVaultFlag && scheduleFlag == "" {
			return errors.New("nothing to watch. Enable the vault watcher or give a --schedule")
		}

		ch := make(chan struct{}, 1)

		if !noVaultFlag {
			if err := watchVault(cmd.Context(), ctx.VaultPath, ch); err != nil {
				return err
			}
			log.Infof("watching %s\n", ctx.VaultPath)
		}

		if scheduleFlag != "" {
			c := cron.New()
			if err := c.AddFunc(scheduleFlag, func() { trigger(ch) }); err != nil {
				return errors.Wrapf(err, "parsing schedule %s", scheduleFlag)
			}
			c.Start()
			defer c.Stop()
			log.Infof("scheduled passes: %s\n", scheduleFlag)
		}

		runPasses(cmd.Context(), ctx, ch)

		return nil
	}
}
