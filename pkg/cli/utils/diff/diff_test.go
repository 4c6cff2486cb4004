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

package diff

import (
	"testing"

	"github.com/gorf/notebridge/pkg/assert"
)

func TestRatio(t *testing.T) {
	testCases := []struct {
		name string
		s1   string
		s2   string
		min  float64
		max  float64
	}{
		{name: "identical", s1: "foo bar baz", s2: "foo bar baz", min: 1, max: 1},
		{name: "both empty", s1: "", s2: "", min: 1, max: 1},
		{name: "disjoint", s1: "aaaa", s2: "bbbb", min: 0, max: 0},
		{name: "one empty", s1: "aaaa", s2: "", min: 0, max: 0},
		{name: "close", s1: "project plan", s2: "project plans", min: 0.9, max: 0.99},
		{name: "half", s1: "abcd", s2: "abxy", min: 0.4, max: 0.6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Ratio(tc.s1, tc.s2)

			assert.True(t, result >= tc.min, "ratio below expected range")
			assert.True(t, result <= tc.max, "ratio above expected range")
		})
	}
}
