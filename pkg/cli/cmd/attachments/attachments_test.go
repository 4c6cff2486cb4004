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

package attachments

import (
	"testing"

	"github.com/gorf/notebridge/pkg/assert"
)

func TestRelLink(t *testing.T) {
	testCases := []struct {
		filePath      string
		attachmentRel string
		expected      string
	}{
		{
			filePath:      "note.md",
			attachmentRel: "attachments/pic.png",
			expected:      "attachments/pic.png",
		},
		{
			filePath:      "projects/note.md",
			attachmentRel: "attachments/pic.png",
			expected:      "../attachments/pic.png",
		},
		{
			filePath:      "projects/alpha/note.md",
			attachmentRel: "attachments/pic.png",
			expected:      "../../attachments/pic.png",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			got := relLink(tc.filePath, tc.attachmentRel)
			assert.Equal(t, got, tc.expected, "link mismatch")
		})
	}
}
