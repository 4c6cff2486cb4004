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
	"strings"
	"sync"
	"time"

	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/clock"
	"github.com/pkg/errors"
)

// Notebook is a notebook resource on the service
type Notebook struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
}

type notebooksPage struct {
	Items   []Notebook `json:"items"`
	HasMore bool       `json:"has_more"`
}

// ListNotebooks fetches every notebook on the service
func ListNotebooks(ctx stdctx.Context, nctx context.NotebridgeCtx) ([]Notebook, error) {
	var ret []Notebook

	for page := 1; ; page++ {
		v := url.Values{}
		v.Set("page", strconv.Itoa(page))

		path := fmt.Sprintf("/folders?%s", v.Encode())
		body, err := doAuthorizedReq(ctx, nctx, "GET", path, "", nil)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching page %d", page)
		}

		var resp notebooksPage
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

// CreateNotebookPayload is a payload for creating a notebook
type CreateNotebookPayload struct {
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
}

// CreateNotebook creates a notebook on the service
func CreateNotebook(ctx stdctx.Context, nctx context.NotebridgeCtx, payload CreateNotebookPayload) (Notebook, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Notebook{}, errors.Wrap(err, "marshalling the payload")
	}

	body, err := doAuthorizedReq(ctx, nctx, "POST", "/folders", string(b), nil)
	if err != nil {
		return Notebook{}, errors.Wrap(err, "making the request")
	}

	var ret Notebook
	if err = json.Unmarshal(body, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling the payload")
	}

	return ret, nil
}

// NotebookCache resolves notebook ids to slash-separated paths and back,
// refreshing its view of the notebook tree when it goes stale. Safe for
// concurrent use.
type NotebookCache struct {
	mu    sync.Mutex
	clock clock.Clock
	ttl   time.Duration

	fetchedAt time.Time
	pathByID  map[string]string
	idByPath  map[string]string
}

// NewNotebookCache creates a notebook cache. A zero ttl means every call
// refetches the tree.
func NewNotebookCache(c clock.Clock, ttl time.Duration) *NotebookCache {
	return &NotebookCache{clock: c, ttl: ttl}
}

// Invalidate drops the cached tree so the next call refetches it
func (c *NotebookCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchedAt = time.Time{}
}

// refresh fetches the notebook tree when the cache is stale. Callers must
// hold the mutex.
func (c *NotebookCache) refresh(ctx stdctx.Context, nctx context.NotebridgeCtx) error {
	now := c.clock.Now()
	if !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.ttl {
		return nil
	}

	notebooks, err := ListNotebooks(ctx, nctx)
	if err != nil {
		return errors.Wrap(err, "listing notebooks")
	}

	byID := map[string]Notebook{}
	for _, nb := range notebooks {
		byID[nb.ID] = nb
	}

	pathByID := map[string]string{}
	idByPath := map[string]string{}
	for _, nb := range notebooks {
		segments := []string{nb.Title}
		cur := nb
		for cur.ParentID != "" {
			parent, ok := byID[cur.ParentID]
			if !ok {
				break
			}
			segments = append([]string{parent.Title}, segments...)
			cur = parent
		}

		path := strings.Join(segments, "/")
		pathByID[nb.ID] = path
		idByPath[path] = nb.ID
	}

	c.pathByID = pathByID
	c.idByPath = idByPath
	c.fetchedAt = now

	return nil
}

// PathByID resolves a notebook id to its slash-separated path. An unknown
// id resolves to the empty root path.
func (c *NotebookCache) PathByID(ctx stdctx.Context, nctx context.NotebridgeCtx, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refresh(ctx, nctx); err != nil {
		return "", err
	}

	return c.pathByID[id], nil
}

// IDByPath resolves a slash-separated path to a notebook id
func (c *NotebookCache) IDByPath(ctx stdctx.Context, nctx context.NotebridgeCtx, path string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refresh(ctx, nctx); err != nil {
		return "", false, err
	}

	id, ok := c.idByPath[path]
	return id, ok, nil
}

// Ensure resolves a slash-separated path to a notebook id, creating any
// missing segments along the way. An empty path is the root.
func (c *NotebookCache) Ensure(ctx stdctx.Context, nctx context.NotebridgeCtx, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refresh(ctx, nctx); err != nil {
		return "", err
	}

	if id, ok := c.idByPath[path]; ok {
		return id, nil
	}

	segments := strings.Split(path, "/")
	var parentID string
	var prefix string
	for _, segment := range segments {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}

		if id, ok := c.idByPath[prefix]; ok {
			parentID = id
			continue
		}

		nb, err := CreateNotebook(ctx, nctx, CreateNotebookPayload{ParentID: parentID, Title: segment})
		if err != nil {
			return "", errors.Wrapf(err, "creating notebook %s", prefix)
		}

		c.idByPath[prefix] = nb.ID
		c.pathByID[nb.ID] = prefix
		parentID = nb.ID
	}

	return parentID, nil
}
