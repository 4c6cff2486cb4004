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

// Package rules decides which containers take part in a sync pass and in
// which direction. Patterns match against slash-separated container paths
// and support doublestar globs.
package rules

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Decision indicates how notes under a container may be synced
type Decision int

const (
	// Bidirectional allows both push and pull for the container
	Bidirectional Decision = iota
	// PushOnly allows syncing from this side to the other side only
	PushOnly
	// PullOnly allows syncing from the other side to this side only
	PullOnly
	// Skip excludes the container from sync entirely
	Skip
)

// Rules holds the container patterns configured by the user
type Rules struct {
	Skip           []string `yaml:"skip"`
	ServiceToVault []string `yaml:"service_to_vault_only"`
	VaultToService []string `yaml:"vault_to_service_only"`
}

func matchesAny(container string, patterns []string) bool {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, container)
		if err != nil {
			// an invalid pattern matches nothing
			continue
		}
		if ok {
			return true
		}
	}

	return false
}

// ForService returns the decision for a note living in the given container
// on the note service side.
func (r Rules) ForService(container string) Decision {
	switch {
	case matchesAny(container, r.Skip):
		return Skip
	case matchesAny(container, r.ServiceToVault):
		return PushOnly
	case matchesAny(container, r.VaultToService):
		return PullOnly
	}

	return Bidirectional
}

// ForVault returns the decision for a document living in the given folder
// on the vault side.
func (r Rules) ForVault(folder string) Decision {
	switch {
	case matchesAny(folder, r.Skip):
		return Skip
	case matchesAny(folder, r.VaultToService):
		return PushOnly
	case matchesAny(folder, r.ServiceToVault):
		return PullOnly
	}

	return Bidirectional
}

// Include reports whether a note in the given container should be part of
// the snapshot used for matching. PullOnly containers stay in the snapshot
// so that existing pairs keep matching; only Skip removes them.
func (r Rules) Include(d Decision) bool {
	return d != Skip
}
