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

// Package utils provides utilities
package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a uuid v4 in string
func GenerateUUID() string {
	return uuid.NewString()
}

// IsUUID checks if the given string is a well-formed uuid
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
