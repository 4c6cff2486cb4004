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
	"sync"
	"time"

	"github.com/gorf/notebridge/pkg/cli/client"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/rules"
	"github.com/gorf/notebridge/pkg/cli/syncmeta"
	"github.com/gorf/notebridge/pkg/cli/utils"
	"github.com/gorf/notebridge/pkg/cli/validate"
	"github.com/gorf/notebridge/pkg/clock"
	"github.com/pkg/errors"
)

const (
	// DefaultWorkers is the worker pool size used when none is configured
	DefaultWorkers = 4

	maxRetries        = 2
	defaultRetryDelay = time.Second
)

// Executor runs a reconciliation plan. All state store writes happen on a
// single collector goroutine; workers only talk to the two sides.
type Executor struct {
	Service   Service
	Vault     Vault
	DB        *database.DB
	Decisions DecisionSource
	Clock     clock.Clock
	Rules     rules.Rules
	Direction Direction
	Workers   int

	// RetryDelay overrides the base retry backoff, for tests
	RetryDelay time.Duration
}

func (e *Executor) workers() int {
	if e.Workers <= 0 {
		return DefaultWorkers
	}

	return e.Workers
}

func (e *Executor) retryDelay() time.Duration {
	if e.RetryDelay == 0 {
		return defaultRetryDelay
	}

	return e.RetryDelay
}

// outcome is what a worker hands the collector: a result plus the state
// store write it earned
type outcome struct {
	result Result
	upsert *database.StateEntry
	remove *database.StateEntry
}

type job func(ctx stdctx.Context) outcome

// movedPaths tracks where the move phase relocated pairs within the
// current pass, keyed by sync id, so the propagation phase acts on
// current locations instead of the snapshot taken before the pass.
type movedPaths struct {
	mu sync.Mutex
	m  map[string]movedPair
}

type movedPair struct {
	// vaultPath is empty when the vault file itself did not move
	vaultPath string
	container string
}

func newMovedPaths() *movedPaths {
	return &movedPaths{m: map[string]movedPair{}}
}

func (mp *movedPaths) set(syncID, vaultPath, container string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.m[syncID] = movedPair{vaultPath: vaultPath, container: container}
}

// rebase updates a pair with the location its move produced earlier in
// the pass
func (mp *movedPaths) rebase(p reconcile.Pair) reconcile.Pair {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mv, ok := mp.m[p.SyncID]
	if !ok {
		return p
	}

	if mv.vaultPath != "" {
		p.Vault.LocalID = mv.vaultPath
	}
	p.Vault.Container = mv.container
	p.Service.Container = mv.container

	return p
}

// Run executes the plan phase by phase. Per-note failures never abort the
// pass; cancelling ctx stops before further operations without rolling
// back completed ones.
func (e *Executor) Run(ctx stdctx.Context, plan reconcile.Plan) (Summary, error) {
	var summary Summary

	now := e.Clock.Now().UTC().Truncate(time.Second)

	moved := newMovedPaths()

	phases := []struct {
		phase   Phase
		confirm bool
		jobs    []job
	}{
		{PhaseDeletions, true, e.deletionJobs(plan.Deletions)},
		{PhaseMoves, true, e.moveJobs(plan.Moves, moved)},
		{PhasePropagate, false, e.propagateJobs(plan.Matched, now, moved)},
		{PhaseCreateVault, false, e.createVaultJobs(plan.NewService, now)},
		{PhaseCreateService, false, e.createServiceJobs(plan.NewVault, now)},
	}

	for _, p := range phases {
		if len(p.jobs) == 0 {
			continue
		}

		if p.confirm {
			ok, err := e.Decisions.ConfirmPhase(p.phase, len(p.jobs))
			if err != nil {
				return summary, errors.Wrapf(err, "confirming %s", p.phase)
			}
			if !ok {
				log.Infof("skipping %s\n", p.phase)
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		e.runPhase(ctx, p.jobs, &summary)
	}

	return summary, ctx.Err()
}

// runPhase feeds jobs to a bounded worker pool. A single collector owns
// the state store and the summary.
func (e *Executor) runPhase(ctx stdctx.Context, jobs []job, summary *Summary) {
	jobCh := make(chan job)
	outCh := make(chan outcome)

	var wg sync.WaitGroup
	n := e.workers()
	if n > len(jobs) {
		n = len(jobs)
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				outCh <- j(ctx)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for out := range outCh {
			e.collect(out, summary)
		}
	}()

	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()
	close(outCh)
	<-done
}

// collect applies the state store write for an outcome and folds the
// result into the summary. Runs on the collector goroutine only.
func (e *Executor) collect(out outcome, summary *Summary) {
	r := out.result

	if r.Status == StatusSuccess || r.Status == StatusRetried {
		switch {
		case out.upsert != nil:
			if err := out.upsert.Upsert(e.DB); err != nil {
				r.Status = StatusFailed
				r.Reason = errors.Wrap(err, "recording sync state").Error()
			}
		case out.remove != nil:
			if err := out.remove.Delete(e.DB); err != nil {
				r.Status = StatusFailed
				r.Reason = errors.Wrap(err, "removing sync state").Error()
			}
		}
	}

	summary.add(r)
}

// withRetry runs op, retrying transient failures with increasing delay
func (e *Executor) withRetry(ctx stdctx.Context, op func() error) (bool, error) {
	delay := e.retryDelay()

	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || attempt >= maxRetries || !client.IsRetryable(err) {
			return attempt > 0, err
		}

		log.Debug("retrying after error: %v\n", err)
		select {
		case <-ctx.Done():
			return attempt > 0, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func status(retried bool) Status {
	if retried {
		return StatusRetried
	}

	return StatusSuccess
}

func failure(phase Phase, op, syncID, title string, err error) outcome {
	return outcome{result: Result{
		Phase:  phase,
		Op:     op,
		SyncID: syncID,
		Title:  title,
		Status: StatusFailed,
		Reason: err.Error(),
	}}
}

// allowServiceToVault reports whether content may flow service to vault
// for a note living in the given containers
func (e *Executor) allowServiceToVault(serviceContainer string) bool {
	if e.Direction == VaultToService {
		return false
	}

	return e.Rules.ForService(serviceContainer) != rules.PullOnly
}

func (e *Executor) allowVaultToService(vaultContainer string) bool {
	if e.Direction == ServiceToVault {
		return false
	}

	return e.Rules.ForVault(vaultContainer) != rules.PullOnly
}

func (e *Executor) deletionJobs(deletions []reconcile.Deletion) []job {
	var ret []job

	for _, d := range deletions {
		d := d
		ret = append(ret, func(ctx stdctx.Context) outcome {
			entry := d.Entry

			if d.Counterpart == nil {
				return outcome{
					result: Result{Phase: PhaseDeletions, Op: opDrop, SyncID: d.SyncID, Title: entry.Service.Title, Status: StatusSuccess},
					remove: &entry,
				}
			}

			title := d.Counterpart.Title
			var retried bool
			var err error
			if d.DeletedOn == reconcile.SideService {
				retried, err = e.withRetry(ctx, func() error {
					_, serr := e.Vault.SoftDelete(ctx, d.Counterpart.LocalID)
					return serr
				})
			} else {
				retried, err = e.withRetry(ctx, func() error {
					return e.Service.SoftDelete(ctx, d.Counterpart.LocalID)
				})
			}
			if err != nil {
				return failure(PhaseDeletions, opDelete, d.SyncID, title, err)
			}

			return outcome{
				result: Result{Phase: PhaseDeletions, Op: opDelete, SyncID: d.SyncID, Title: title, Status: status(retried)},
				remove: &entry,
			}
		})
	}

	return ret
}

func (e *Executor) moveJobs(moves []reconcile.Move, moved *movedPaths) []job {
	var ret []job

	for _, m := range moves {
		m := m
		ret = append(ret, func(ctx stdctx.Context) outcome {
			entry := m.Entry

			var retried bool
			var err error
			if m.MovedOn == reconcile.SideService {
				// mirror onto the vault
				var newPath string
				retried, err = e.withRetry(ctx, func() error {
					var serr error
					newPath, serr = e.Vault.Move(ctx, m.Target.LocalID, m.NewContainer)
					return serr
				})
				if err == nil {
					entry.Vault.LocalID = newPath
					entry.Vault.Container = m.NewContainer
					entry.Service.Container = m.NewContainer
					moved.set(m.SyncID, newPath, m.NewContainer)
				}
			} else {
				retried, err = e.withRetry(ctx, func() error {
					return e.Service.Move(ctx, m.Target.LocalID, m.NewContainer, m.Target.ModifiedAt)
				})
				if err == nil {
					entry.Service.Container = m.NewContainer
					entry.Vault.Container = m.NewContainer
					moved.set(m.SyncID, "", m.NewContainer)
				}
			}
			if err != nil {
				return failure(PhaseMoves, opMove, m.SyncID, m.Target.Title, err)
			}

			return outcome{
				result: Result{Phase: PhaseMoves, Op: opMove, SyncID: m.SyncID, Title: m.Target.Title, Status: status(retried)},
				upsert: &entry,
			}
		})
	}

	return ret
}

func (e *Executor) propagateJobs(matched []reconcile.Pair, now time.Time, moved *movedPaths) []job {
	var ret []job

	for _, p := range matched {
		p := p

		if p.NeedsBackfill {
			ret = append(ret, func(ctx stdctx.Context) outcome {
				return e.backfill(ctx, moved.rebase(p), now)
			})
			continue
		}

		action := reconcile.Decide(p)
		switch action {
		case reconcile.ActionNone:
			continue
		case reconcile.ActionConflict:
			ret = append(ret, func(stdctx.Context) outcome {
				return outcome{result: Result{
					Phase:  PhasePropagate,
					Op:     opUpdate,
					SyncID: p.SyncID,
					Title:  p.Service.Title,
					Status: StatusConflict,
					Reason: "changed on both sides",
				}}
			})
		case reconcile.ActionServiceToVault:
			ret = append(ret, func(ctx stdctx.Context) outcome {
				return e.propagateServiceToVault(ctx, moved.rebase(p), now)
			})
		case reconcile.ActionVaultToService:
			ret = append(ret, func(ctx stdctx.Context) outcome {
				return e.propagateVaultToService(ctx, moved.rebase(p), now)
			})
		}
	}

	return ret
}

func skipped(phase Phase, op, syncID, title, reason string) outcome {
	return outcome{result: Result{
		Phase:  phase,
		Op:     op,
		SyncID: syncID,
		Title:  title,
		Status: StatusSkipped,
		Reason: reason,
	}}
}

func (e *Executor) record(p reconcile.Pair, now time.Time) syncmeta.Record {
	source := syncmeta.SourceService
	if p.Service.Meta != nil && p.Service.Meta.Source != "" {
		source = p.Service.Meta.Source
	} else if p.Vault.Meta != nil && p.Vault.Meta.Source != "" {
		source = p.Vault.Meta.Source
	}

	return syncmeta.Record{ID: p.SyncID, Time: now, Source: source, Version: syncmeta.RecordVersion}
}

// refreshBoth writes the same record onto both sides of a pair and
// returns the new state entry
func (e *Executor) refreshBoth(ctx stdctx.Context, p reconcile.Pair, body, title string, now time.Time) (database.StateEntry, bool, error) {
	rec := e.record(p, now)

	retried1, err := e.withRetry(ctx, func() error {
		return e.Vault.Update(ctx, p.Vault.LocalID, syncmeta.EmbedVault(body, rec), now)
	})
	if err != nil {
		return database.StateEntry{}, retried1, errors.Wrap(err, "updating vault copy")
	}

	retried2, err := e.withRetry(ctx, func() error {
		return e.Service.Update(ctx, p.Service.LocalID, title, syncmeta.EmbedService(body, rec), now)
	})
	if err != nil {
		return database.StateEntry{}, retried1 || retried2, errors.Wrap(err, "updating service copy")
	}

	entry := database.StateEntry{
		SyncID: p.SyncID,
		Service: database.SideSnapshot{
			LocalID:   p.Service.LocalID,
			Title:     title,
			Container: p.Service.Container,
		},
		Vault: database.SideSnapshot{
			LocalID:   p.Vault.LocalID,
			Title:     p.Vault.Title,
			Container: p.Vault.Container,
		},
		RecordedAt: now,
	}

	return entry, retried1 || retried2, nil
}

// backfill embeds the pair's sync record on both sides. Each side keeps
// its own body; content-matched pairs read the same normalized, not byte
// for byte.
func (e *Executor) backfill(ctx stdctx.Context, p reconcile.Pair, now time.Time) outcome {
	serviceBody := syncmeta.Strip(syncmeta.Canonicalize(p.Service.Body))
	vaultBody := syncmeta.Strip(syncmeta.Canonicalize(p.Vault.Body))

	if err := validate.NoteBody(serviceBody); err != nil {
		return skipped(PhasePropagate, opBackfill, p.SyncID, p.Service.Title, err.Error())
	}

	rec := e.record(p, now)

	retried1, err := e.withRetry(ctx, func() error {
		return e.Vault.Update(ctx, p.Vault.LocalID, syncmeta.EmbedVault(vaultBody, rec), now)
	})
	if err != nil {
		return failure(PhasePropagate, opBackfill, p.SyncID, p.Service.Title, errors.Wrap(err, "updating vault copy"))
	}

	retried2, err := e.withRetry(ctx, func() error {
		return e.Service.Update(ctx, p.Service.LocalID, p.Service.Title, syncmeta.EmbedService(serviceBody, rec), now)
	})
	if err != nil {
		return failure(PhasePropagate, opBackfill, p.SyncID, p.Service.Title, errors.Wrap(err, "updating service copy"))
	}

	entry := database.StateEntry{
		SyncID: p.SyncID,
		Service: database.SideSnapshot{
			LocalID:   p.Service.LocalID,
			Title:     p.Service.Title,
			Container: p.Service.Container,
		},
		Vault: database.SideSnapshot{
			LocalID:   p.Vault.LocalID,
			Title:     p.Vault.Title,
			Container: p.Vault.Container,
		},
		RecordedAt: now,
	}

	return outcome{
		result: Result{Phase: PhasePropagate, Op: opBackfill, SyncID: p.SyncID, Title: p.Service.Title, Status: status(retried1 || retried2)},
		upsert: &entry,
	}
}

func (e *Executor) propagateServiceToVault(ctx stdctx.Context, p reconcile.Pair, now time.Time) outcome {
	if !e.allowServiceToVault(p.Service.Container) {
		return skipped(PhasePropagate, opUpdate, p.SyncID, p.Service.Title, "direction excluded")
	}

	body := syncmeta.Strip(syncmeta.Canonicalize(p.Service.Body))
	if err := validate.NoteBody(body); err != nil {
		return skipped(PhasePropagate, opUpdate, p.SyncID, p.Service.Title, err.Error())
	}

	entry, retried, err := e.refreshBoth(ctx, p, body, p.Service.Title, now)
	if err != nil {
		return failure(PhasePropagate, opUpdate, p.SyncID, p.Service.Title, err)
	}

	return outcome{
		result: Result{Phase: PhasePropagate, Op: opUpdate, SyncID: p.SyncID, Title: p.Service.Title, Status: status(retried)},
		upsert: &entry,
	}
}

func (e *Executor) propagateVaultToService(ctx stdctx.Context, p reconcile.Pair, now time.Time) outcome {
	if !e.allowVaultToService(p.Vault.Container) {
		return skipped(PhasePropagate, opUpdate, p.SyncID, p.Vault.Title, "direction excluded")
	}

	body := syncmeta.Strip(syncmeta.Canonicalize(p.Vault.Body))
	if err := validate.NoteBody(body); err != nil {
		return skipped(PhasePropagate, opUpdate, p.SyncID, p.Vault.Title, err.Error())
	}

	entry, retried, err := e.refreshBoth(ctx, p, body, p.Vault.Title, now)
	if err != nil {
		return failure(PhasePropagate, opUpdate, p.SyncID, p.Vault.Title, err)
	}

	return outcome{
		result: Result{Phase: PhasePropagate, Op: opUpdate, SyncID: p.SyncID, Title: p.Vault.Title, Status: status(retried)},
		upsert: &entry,
	}
}

func (e *Executor) createVaultJobs(notes []reconcile.Note, now time.Time) []job {
	var ret []job

	for _, n := range notes {
		n := n
		ret = append(ret, func(ctx stdctx.Context) outcome {
			if !e.allowServiceToVault(n.Container) {
				return skipped(PhaseCreateVault, opCreate, "", n.Title, "direction excluded")
			}

			body := syncmeta.Strip(syncmeta.Canonicalize(n.Body))
			if err := validate.NoteBody(body); err != nil {
				return skipped(PhaseCreateVault, opCreate, "", n.Title, err.Error())
			}

			syncID := ""
			if n.Meta != nil {
				syncID = n.Meta.ID
			}
			if syncID == "" {
				syncID = utils.GenerateUUID()
			}
			rec := syncmeta.Record{ID: syncID, Time: now, Source: syncmeta.SourceService, Version: syncmeta.RecordVersion}

			var path string
			retried1, err := e.withRetry(ctx, func() error {
				var serr error
				path, serr = e.Vault.Create(ctx, n.Container, n.Title, syncmeta.EmbedVault(body, rec), syncID, now)
				return serr
			})
			if err != nil {
				return failure(PhaseCreateVault, opCreate, syncID, n.Title, err)
			}

			retried2, err := e.withRetry(ctx, func() error {
				return e.Service.Update(ctx, n.LocalID, n.Title, syncmeta.EmbedService(body, rec), now)
			})
			if err != nil {
				return failure(PhaseCreateVault, opCreate, syncID, n.Title, err)
			}

			entry := database.StateEntry{
				SyncID:     syncID,
				Service:    database.SideSnapshot{LocalID: n.LocalID, Title: n.Title, Container: n.Container},
				Vault:      database.SideSnapshot{LocalID: path, Title: n.Title, Container: n.Container},
				RecordedAt: now,
			}

			return outcome{
				result: Result{Phase: PhaseCreateVault, Op: opCreate, SyncID: syncID, Title: n.Title, Status: status(retried1 || retried2)},
				upsert: &entry,
			}
		})
	}

	return ret
}

func (e *Executor) createServiceJobs(notes []reconcile.Note, now time.Time) []job {
	var ret []job

	for _, n := range notes {
		n := n
		ret = append(ret, func(ctx stdctx.Context) outcome {
			if !e.allowVaultToService(n.Container) {
				return skipped(PhaseCreateService, opCreate, "", n.Title, "direction excluded")
			}

			body := syncmeta.Strip(syncmeta.Canonicalize(n.Body))
			if err := validate.NoteBody(body); err != nil {
				return skipped(PhaseCreateService, opCreate, "", n.Title, err.Error())
			}

			syncID := ""
			if n.Meta != nil {
				syncID = n.Meta.ID
			}
			if syncID == "" {
				syncID = utils.GenerateUUID()
			}
			rec := syncmeta.Record{ID: syncID, Time: now, Source: syncmeta.SourceVault, Version: syncmeta.RecordVersion}

			var localID string
			retried1, err := e.withRetry(ctx, func() error {
				var serr error
				localID, serr = e.Service.Create(ctx, n.Container, n.Title, syncmeta.EmbedService(body, rec), now)
				return serr
			})
			if err != nil {
				return failure(PhaseCreateService, opCreate, syncID, n.Title, err)
			}

			retried2, err := e.withRetry(ctx, func() error {
				return e.Vault.Update(ctx, n.LocalID, syncmeta.EmbedVault(body, rec), now)
			})
			if err != nil {
				return failure(PhaseCreateService, opCreate, syncID, n.Title, err)
			}

			entry := database.StateEntry{
				SyncID:     syncID,
				Service:    database.SideSnapshot{LocalID: localID, Title: n.Title, Container: n.Container},
				Vault:      database.SideSnapshot{LocalID: n.LocalID, Title: n.Title, Container: n.Container},
				RecordedAt: now,
			}

			return outcome{
				result: Result{Phase: PhaseCreateService, Op: opCreate, SyncID: syncID, Title: n.Title, Status: status(retried1 || retried2)},
				upsert: &entry,
			}
		})
	}

	return ret
}
