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

package sync

import (
	stdctx "context"
	"time"

	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/syncmeta"
	"github.com/gorf/notebridge/pkg/cli/vault"
	"github.com/pkg/errors"
)

// vaultAdapter implements Vault on top of a markdown tree
type vaultAdapter struct {
	v *vault.Vault
}

// NewVault creates the Vault implementation backed by the markdown tree
// at the configured vault path
func NewVault(v *vault.Vault) Vault {
	return &vaultAdapter{v: v}
}

func (a *vaultAdapter) List(ctx stdctx.Context) ([]reconcile.Note, error) {
	files, err := a.v.List()
	if err != nil {
		return nil, errors.Wrap(err, "listing the vault")
	}

	var ret []reconcile.Note
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		note := reconcile.Note{
			LocalID:    f.Path,
			Title:      f.Title,
			Body:       f.Content,
			Container:  f.Folder,
			ModifiedAt: f.ModifiedAt,
		}
		if rec, ok := syncmeta.ExtractVault(f.Content); ok {
			note.Meta = &rec
		}

		ret = append(ret, note)
	}

	return ret, nil
}

func (a *vaultAdapter) Create(ctx stdctx.Context, container, title, content, syncID string, at time.Time) (string, error) {
	return a.v.Create(container, title, content, syncID, at)
}

func (a *vaultAdapter) Update(ctx stdctx.Context, localID, content string, at time.Time) error {
	return a.v.Update(localID, content, at)
}

func (a *vaultAdapter) Move(ctx stdctx.Context, localID, container string) (string, error) {
	return a.v.Move(localID, container)
}

func (a *vaultAdapter) SoftDelete(ctx stdctx.Context, localID string) (string, error) {
	return a.v.SoftDelete(localID)
}

func (a *vaultAdapter) EnsureFolder(ctx stdctx.Context, container string) error {
	return a.v.EnsureFolder(container)
}
