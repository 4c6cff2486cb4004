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

package login

import (
	"testing"

	"github.com/gorf/notebridge/pkg/assert"
	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/database"
)

func TestDo(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	ctx := context.NotebridgeCtx{DB: db}

	err := Do(ctx, "token-1")
	assert.Equal(t, err, nil, "storing token should not error")

	var got string
	err = database.GetSystem(db, consts.SystemAPIToken, &got)
	assert.Equal(t, err, nil, "reading token back should not error")
	assert.Equal(t, got, "token-1", "stored token mismatch")

	// logging in again replaces the token
	err = Do(ctx, "token-2")
	assert.Equal(t, err, nil, "replacing token should not error")

	err = database.GetSystem(db, consts.SystemAPIToken, &got)
	assert.Equal(t, err, nil, "reading replaced token should not error")
	assert.Equal(t, got, "token-2", "replaced token mismatch")
}

func TestDoEmptyToken(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	ctx := context.NotebridgeCtx{DB: db}

	err := Do(ctx, "")
	assert.Equal(t, err, ErrEmptyToken, "expected ErrEmptyToken")
}
