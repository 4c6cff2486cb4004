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

package client

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/pkg/errors"
)

const noteFields = "id,parent_id,title,body,updated_time"

// Note is a note resource on the service. UpdatedTime is milliseconds
// since the epoch, which is what the service speaks.
type Note struct {
	ID          string `json:"id"`
	ParentID    string `json:"parent_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	UpdatedTime int64  `json:"updated_time"`
}

// UpdatedAt returns the note's modification time
func (n Note) UpdatedAt() time.Time {
	return time.UnixMilli(n.UpdatedTime).UTC()
}

type notesPage struct {
	Items   []Note `json:"items"`
	HasMore bool   `json:"has_more"`
}

// ListNotes fetches every note on the service, walking the paginated
// listing until has_more turns false.
func ListNotes(ctx stdctx.Context, nctx context.NotebridgeCtx) ([]Note, error) {
	var ret []Note

	for page := 1; ; page++ {
		v := url.Values{}
		v.Set("fields", noteFields)
		v.Set("page", strconv.Itoa(page))

		path := fmt.Sprintf("/notes?%s", v.Encode())
		body, err := doAuthorizedReq(ctx, nctx, "GET", path, "", nil)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching page %d", page)
		}

		var resp notesPage
		if err = json.Unmarshal(body, &resp); err != nil {
			return nil, errors.Wrap(err, "unmarshalling the payload")
		}

		ret = append(ret, resp.Items...)
		if !resp.HasMore {
			break
		}
	}

	return ret, nil
}

// GetNote fetches a single note by id
func GetNote(ctx stdctx.Context, nctx context.NotebridgeCtx, id string) (Note, error) {
	v := url.Values{}
	v.Set("fields", noteFields)

	path := fmt.Sprintf("/notes/%s?%s", id, v.Encode())
	body, err := doAuthorizedReq(ctx, nctx, "GET", path, "", nil)
	if err != nil {
		return Note{}, errors.Wrap(err, "making the request")
	}

	var ret Note
	if err = json.Unmarshal(body, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling the payload")
	}

	return ret, nil
}

// CreateNotePayload is a payload for creating a note. A non-zero
// UpdatedTime pins the note's modification time instead of letting the
// service stamp the time of the request.
type CreateNotePayload struct {
	ParentID    string `json:"parent_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	UpdatedTime int64  `json:"updated_time,omitempty"`
}

// CreateNote creates a note on the service
func CreateNote(ctx stdctx.Context, nctx context.NotebridgeCtx, payload CreateNotePayload) (Note, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Note{}, errors.Wrap(err, "marshalling the payload")
	}

	body, err := doAuthorizedReq(ctx, nctx, "POST", "/notes", string(b), nil)
	if err != nil {
		return Note{}, errors.Wrap(err, "making the request")
	}

	var ret Note
	if err = json.Unmarshal(body, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling the payload")
	}

	return ret, nil
}

// UpdateNotePayload is a payload for updating a note. Nil fields are left
// untouched on the service. A non-nil UpdatedTime pins the note's
// modification time instead of letting the service stamp the time of the
// request.
type UpdateNotePayload struct {
	ParentID    *string `json:"parent_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Body        *string `json:"body,omitempty"`
	UpdatedTime *int64  `json:"updated_time,omitempty"`
}

// UpdateNote updates a note on the service
func UpdateNote(ctx stdctx.Context, nctx context.NotebridgeCtx, id string, payload UpdateNotePayload) (Note, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Note{}, errors.Wrap(err, "marshalling the payload")
	}

	path := fmt.Sprintf("/notes/%s", id)
	body, err := doAuthorizedReq(ctx, nctx, "PUT", path, string(b), nil)
	if err != nil {
		return Note{}, errors.Wrap(err, "making the request")
	}

	var ret Note
	if err = json.Unmarshal(body, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling the payload")
	}

	return ret, nil
}

// DeleteNote permanently deletes a note on the service. Sync passes never
// call this; they move notes to the holding notebook instead.
func DeleteNote(ctx stdctx.Context, nctx context.NotebridgeCtx, id string) error {
	path := fmt.Sprintf("/notes/%s", id)
	if _, err := doAuthorizedReq(ctx, nctx, "DELETE", path, "", &requestOptions{ExpectedContentType: &contentTypeNone}); err != nil {
		return errors.Wrap(err, "making the request")
	}

	return nil
}
