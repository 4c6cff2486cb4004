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

// Package validate checks notes before they are written to either side
package validate

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// MaxBodySize is the largest note body a sync pass will write
	MaxBodySize = 1 << 20

	// maxRecordCount is the number of embedded sync records beyond which
	// a body is considered corrupted by repeated bad round trips
	maxRecordCount = 8
)

// ErrBodyTooLarge is an error for a note body over the size limit
var ErrBodyTooLarge = errors.New("The note body exceeds the maximum size")

// ErrRunawayMetadata is an error for a note whose body accumulated
// sync records instead of replacing them
var ErrRunawayMetadata = errors.New("The note contains runaway sync metadata")

// NoteBody validates a note body before it is written to a side. A
// failure here is final; the note is skipped, not retried.
func NoteBody(body string) error {
	if len(body) > MaxBodySize {
		return ErrBodyTooLarge
	}

	if strings.Count(body, "notebridge_id") > maxRecordCount {
		return ErrRunawayMetadata
	}

	return nil
}
