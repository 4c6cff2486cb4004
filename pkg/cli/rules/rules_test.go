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

package rules

import (
	"testing"

	"github.com/gorf/notebridge/pkg/assert"
)

func TestForService(t *testing.T) {
	r := Rules{
		Skip:           []string{"Templates", "Archive/**"},
		ServiceToVault: []string{"Readings"},
		VaultToService: []string{"Journal/*"},
	}

	testCases := []struct {
		container string
		expected  Decision
	}{
		{container: "Templates", expected: Skip},
		{container: "Archive/2020/Tax", expected: Skip},
		{container: "Readings", expected: PushOnly},
		{container: "Journal/2024", expected: PullOnly},
		{container: "Projects", expected: Bidirectional},
		{container: "", expected: Bidirectional},
	}

	for _, tc := range testCases {
		t.Run(tc.container, func(t *testing.T) {
			result := r.ForService(tc.container)
			assert.Equal(t, result, tc.expected, "decision mismatch")
		})
	}
}

func TestForVault(t *testing.T) {
	r := Rules{
		Skip:           []string{".obsidian/**"},
		ServiceToVault: []string{"Readings"},
		VaultToService: []string{"Journal/*"},
	}

	testCases := []struct {
		folder   string
		expected Decision
	}{
		{folder: ".obsidian/plugins", expected: Skip},
		{folder: "Journal/2024", expected: PushOnly},
		{folder: "Readings", expected: PullOnly},
		{folder: "Projects", expected: Bidirectional},
	}

	for _, tc := range testCases {
		t.Run(tc.folder, func(t *testing.T) {
			result := r.ForVault(tc.folder)
			assert.Equal(t, result, tc.expected, "decision mismatch")
		})
	}
}

func TestInvalidPattern(t *testing.T) {
	r := Rules{Skip: []string{"[invalid"}}

	assert.Equal(t, r.ForService("anything"), Bidirectional, "invalid pattern should match nothing")
}
