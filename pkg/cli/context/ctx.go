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

// Package context defines the notebridge runtime context
package context

import (
	"net/http"

	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/rules"
	"github.com/gorf/notebridge/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// NotebridgeCtx is a context holding the information of the current runtime
type NotebridgeCtx struct {
	Paths       Paths
	Version     string
	DB          *database.DB
	APIEndpoint string
	APIToken    string
	VaultPath   string
	Workers     int
	Rules       rules.Rules
	Clock       clock.Clock
	HTTPClient  *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx NotebridgeCtx) NotebridgeCtx {
	var token string
	if ctx.APIToken != "" {
		token = "1"
	} else {
		token = "0"
	}
	ctx.APIToken = token

	return ctx
}
