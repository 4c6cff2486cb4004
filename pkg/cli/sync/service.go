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
	"strings"
	"time"

	"github.com/gorf/notebridge/pkg/cli/client"
	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/reconcile"
	"github.com/gorf/notebridge/pkg/cli/syncmeta"
	"github.com/pkg/errors"
)

// serviceAdapter implements Service on top of the note service web API
type serviceAdapter struct {
	nctx  context.NotebridgeCtx
	cache *client.NotebookCache
}

// NewService creates the Service implementation backed by the configured
// note service
func NewService(nctx context.NotebridgeCtx, cache *client.NotebookCache) Service {
	return &serviceAdapter{nctx: nctx, cache: cache}
}

func (s *serviceAdapter) List(ctx stdctx.Context) ([]reconcile.Note, error) {
	notes, err := client.ListNotes(ctx, s.nctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing notes")
	}

	var ret []reconcile.Note
	for _, n := range notes {
		container, err := s.cache.PathByID(ctx, s.nctx, n.ParentID)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving container of %s", n.ID)
		}

		// the holding notebook is not part of the live snapshot
		if container == consts.TrashNotebookName || strings.HasPrefix(container, consts.TrashNotebookName+"/") {
			continue
		}

		note := reconcile.Note{
			LocalID:    n.ID,
			Title:      n.Title,
			Body:       n.Body,
			Container:  container,
			ModifiedAt: n.UpdatedAt(),
		}
		if rec, ok := syncmeta.ExtractService(n.Body); ok {
			note.Meta = &rec
		}

		ret = append(ret, note)
	}

	return ret, nil
}

func (s *serviceAdapter) Create(ctx stdctx.Context, container, title, body string, at time.Time) (string, error) {
	parentID, err := s.cache.Ensure(ctx, s.nctx, container)
	if err != nil {
		return "", errors.Wrapf(err, "ensuring notebook %s", container)
	}

	note, err := client.CreateNote(ctx, s.nctx, client.CreateNotePayload{
		ParentID:    parentID,
		Title:       title,
		Body:        body,
		UpdatedTime: at.UnixMilli(),
	})
	if err != nil {
		return "", errors.Wrap(err, "creating note")
	}

	return note.ID, nil
}

func (s *serviceAdapter) Update(ctx stdctx.Context, localID, title, body string, at time.Time) error {
	ms := at.UnixMilli()
	_, err := client.UpdateNote(ctx, s.nctx, localID, client.UpdateNotePayload{
		Title:       &title,
		Body:        &body,
		UpdatedTime: &ms,
	})

	return errors.Wrap(err, "updating note")
}

func (s *serviceAdapter) Move(ctx stdctx.Context, localID, container string, at time.Time) error {
	parentID, err := s.cache.Ensure(ctx, s.nctx, container)
	if err != nil {
		return errors.Wrapf(err, "ensuring notebook %s", container)
	}

	ms := at.UnixMilli()
	_, err = client.UpdateNote(ctx, s.nctx, localID, client.UpdateNotePayload{
		ParentID:    &parentID,
		UpdatedTime: &ms,
	})

	return errors.Wrap(err, "moving note")
}

func (s *serviceAdapter) SoftDelete(ctx stdctx.Context, localID string) error {
	parentID, err := s.cache.Ensure(ctx, s.nctx, consts.TrashNotebookName)
	if err != nil {
		return errors.Wrap(err, "ensuring the holding notebook")
	}

	_, err = client.UpdateNote(ctx, s.nctx, localID, client.UpdateNotePayload{
		ParentID: &parentID,
	})

	return errors.Wrap(err, "moving note to the holding notebook")
}

func (s *serviceAdapter) EnsureContainer(ctx stdctx.Context, container string) error {
	_, err := s.cache.Ensure(ctx, s.nctx, container)

	return err
}
