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

package reconcile

// Action is the outcome of deciding a matched pair
type Action int

const (
	// ActionNone means neither side changed since the last recorded sync
	ActionNone Action = iota
	// ActionServiceToVault propagates the service copy onto the vault
	ActionServiceToVault
	// ActionVaultToService propagates the vault copy onto the service
	ActionVaultToService
	// ActionConflict means both sides changed; never propagated
	ActionConflict
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionServiceToVault:
		return "service-to-vault"
	case ActionVaultToService:
		return "vault-to-service"
	case ActionConflict:
		return "conflict"
	}

	return "unknown"
}

// changed reports whether a side was modified after its own recorded sync
// time. A missing record means the note never completed a sync on that
// side, which counts as changed.
func changed(n Note) bool {
	if n.Meta == nil {
		return true
	}

	return n.ModifiedAt.After(n.Meta.Time)
}

// Decide applies the change truth table to a matched pair. Each side is
// compared only against its own recorded sync time, never against the
// other side's clock.
func Decide(p Pair) Action {
	sChanged := changed(p.Service)
	vChanged := changed(p.Vault)

	switch {
	case sChanged && vChanged:
		return ActionConflict
	case sChanged:
		return ActionServiceToVault
	case vChanged:
		return ActionVaultToService
	}

	return ActionNone
}
