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

package validate

import (
	"strings"
	"testing"

	"github.com/gorf/notebridge/pkg/assert"
)

func TestNoteBody(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected error
	}{
		{
			name:     "plain body",
			input:    "a perfectly normal note",
			expected: nil,
		},
		{
			name:     "empty body",
			input:    "",
			expected: nil,
		},
		{
			name:     "at the size limit",
			input:    strings.Repeat("a", MaxBodySize),
			expected: nil,
		},
		{
			name:     "over the size limit",
			input:    strings.Repeat("a", MaxBodySize+1),
			expected: ErrBodyTooLarge,
		},
		{
			name:     "a few records is fine",
			input:    strings.Repeat("<!-- notebridge_id: x -->\n", 2),
			expected: nil,
		},
		{
			name:     "runaway records",
			input:    strings.Repeat("<!-- notebridge_id: x -->\n", 20),
			expected: ErrRunawayMetadata,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NoteBody(tc.input)

			assert.Equal(t, got, tc.expected, "error mismatch")
		})
	}
}
