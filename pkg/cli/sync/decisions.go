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
	"io"

	"github.com/gorf/notebridge/pkg/cli/dedupe"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/ui"
	"github.com/gorf/notebridge/pkg/prompt"
	"github.com/pkg/errors"
)

// PolicyDecisions is a non-interactive decision source that applies the
// same answer to everything. Used by --yes runs and scheduled passes.
type PolicyDecisions struct {
	// AcceptPhases confirms destructive phases when true and declines
	// them when false
	AcceptPhases bool
	// Keep resolves every duplicate pair the same way
	Keep Choice
}

// ConfirmPhase applies the configured policy
func (d PolicyDecisions) ConfirmPhase(phase Phase, n int) (bool, error) {
	return d.AcceptPhases, nil
}

// ResolveDuplicate applies the configured policy
func (d PolicyDecisions) ResolveDuplicate(pair dedupe.Pair) (Choice, error) {
	return d.Keep, nil
}

// PromptDecisions asks the user on every decision
type PromptDecisions struct {
	In io.Reader
}

// ConfirmPhase asks the user whether a destructive phase may run
func (d PromptDecisions) ConfirmPhase(phase Phase, n int) (bool, error) {
	log.Askf(prompt.FormatQuestion("run %s for %d note(s)?", false), false, phase, n)

	ok, err := prompt.ReadYesNo(d.In, false)
	if err != nil {
		return false, errors.Wrap(err, "reading confirmation")
	}

	return ok, nil
}

// ResolveDuplicate shows the pair and asks which copy to keep
func (d PromptDecisions) ResolveDuplicate(pair dedupe.Pair) (Choice, error) {
	ui.RenderDuplicate(pair)
	log.Askf("keep which copy? (service/vault/skip)", false)

	idx, err := prompt.ReadChoice(d.In, []string{"service", "vault", "skip", "s", "v"})
	if err != nil {
		return ChoiceSkip, errors.Wrap(err, "reading choice")
	}

	switch idx {
	case 0, 3:
		return ChoiceKeepService, nil
	case 1, 4:
		return ChoiceKeepVault, nil
	}

	return ChoiceSkip, nil
}
