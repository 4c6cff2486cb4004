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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorf/notebridge/pkg/assert"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/clock"
	"github.com/pkg/errors"
)

func testCtx(endpoint string) context.NotebridgeCtx {
	return context.NotebridgeCtx{
		APIEndpoint: endpoint,
		APIToken:    "test-token",
		Version:     "test",
	}
}

func TestListNotes(t *testing.T) {
	t.Run("paginates", func(t *testing.T) {
		pages := map[string]notesPage{
			"1": {Items: []Note{{ID: "a", Title: "one"}}, HasMore: true},
			"2": {Items: []Note{{ID: "b", Title: "two"}}, HasMore: false},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, r.URL.Path, "/notes", "path mismatch")
			assert.Equal(t, r.URL.Query().Get("token"), "test-token", "token mismatch")

			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(pages[r.URL.Query().Get("page")]); err != nil {
				t.Fatal(err)
			}
		}))
		defer server.Close()

		got, err := ListNotes(stdctx.Background(), testCtx(server.URL))

		assert.Equal(t, err, nil, "error mismatch")
		assert.Equal(t, len(got), 2, "note count mismatch")
		assert.Equal(t, got[0].ID, "a", "first id mismatch")
		assert.Equal(t, got[1].ID, "b", "second id mismatch")
	})

	t.Run("error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer server.Close()

		_, err := ListNotes(stdctx.Background(), testCtx(server.URL))

		httpErr, ok := errors.Cause(err).(*HTTPError)
		assert.Equal(t, ok, true, "error type mismatch")
		assert.Equal(t, httpErr.StatusCode, http.StatusForbidden, "status mismatch")
	})

	t.Run("no token", func(t *testing.T) {
		nctx := testCtx("http://localhost:0")
		nctx.APIToken = ""

		_, err := ListNotes(stdctx.Background(), nctx)

		assert.Equal(t, errors.Cause(err), ErrNoAPIToken, "error mismatch")
	})
}

func TestCreateNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, "POST", "method mismatch")
		assert.Equal(t, r.URL.Path, "/notes", "path mismatch")

		var payload CreateNotePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, payload.Title, "groceries", "title mismatch")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id": "new-id", "parent_id": %q, "title": %q, "body": %q, "updated_time": 1709287200000}`,
			payload.ParentID, payload.Title, payload.Body)
	}))
	defer server.Close()

	got, err := CreateNote(stdctx.Background(), testCtx(server.URL), CreateNotePayload{
		ParentID: "nb-1",
		Title:    "groceries",
		Body:     "- milk",
	})

	assert.Equal(t, err, nil, "error mismatch")
	assert.Equal(t, got.ID, "new-id", "id mismatch")
	assert.Equal(t, got.UpdatedAt(), time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), "time mismatch")
}

func TestIsRetryable(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "rate limited", err: &HTTPError{StatusCode: 429}, expected: true},
		{name: "server error", err: &HTTPError{StatusCode: 503}, expected: true},
		{name: "wrapped server error", err: errors.Wrap(&HTTPError{StatusCode: 500}, "making the request"), expected: true},
		{name: "not found", err: &HTTPError{StatusCode: 404}, expected: false},
		{name: "bad request", err: &HTTPError{StatusCode: 400}, expected: false},
		{name: "deadline", err: stdctx.DeadlineExceeded, expected: true},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:41184: connect: connection refused"), expected: true},
		{name: "plain error", err: errors.New("boom"), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, IsRetryable(tc.err), tc.expected, "result mismatch")
		})
	}
}

func TestNotebookCache(t *testing.T) {
	t.Run("resolves nested paths and caches", func(t *testing.T) {
		var fetches int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fetches++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items": [
				{"id": "nb-1", "parent_id": "", "title": "work"},
				{"id": "nb-2", "parent_id": "nb-1", "title": "projects"}
			], "has_more": false}`)
		}))
		defer server.Close()

		c := clock.NewMock()
		cache := NewNotebookCache(c, time.Minute)
		nctx := testCtx(server.URL)

		path, err := cache.PathByID(stdctx.Background(), nctx, "nb-2")
		assert.Equal(t, err, nil, "error mismatch")
		assert.Equal(t, path, "work/projects", "path mismatch")

		id, ok, err := cache.IDByPath(stdctx.Background(), nctx, "work")
		assert.Equal(t, err, nil, "error mismatch")
		assert.Equal(t, ok, true, "ok mismatch")
		assert.Equal(t, id, "nb-1", "id mismatch")
		assert.Equal(t, fetches, 1, "fetch count mismatch")

		// past the ttl the tree is refetched
		c.Advance(2 * time.Minute)
		_, err = cache.PathByID(stdctx.Background(), nctx, "nb-1")
		assert.Equal(t, err, nil, "error mismatch")
		assert.Equal(t, fetches, 2, "fetch count mismatch")
	})

	t.Run("ensure creates missing segments", func(t *testing.T) {
		var created []CreateNotebookPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			if r.Method == "POST" {
				var payload CreateNotebookPayload
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Fatal(err)
				}
				created = append(created, payload)
				fmt.Fprintf(w, `{"id": "nb-new-%d", "parent_id": %q, "title": %q}`, len(created), payload.ParentID, payload.Title)
				return
			}

			fmt.Fprint(w, `{"items": [{"id": "nb-1", "parent_id": "", "title": "work"}], "has_more": false}`)
		}))
		defer server.Close()

		cache := NewNotebookCache(clock.NewMock(), time.Minute)

		id, err := cache.Ensure(stdctx.Background(), testCtx(server.URL), "work/projects/alpha")

		assert.Equal(t, err, nil, "error mismatch")
		assert.Equal(t, id, "nb-new-2", "id mismatch")
		assert.Equal(t, len(created), 2, "create count mismatch")
		assert.Equal(t, created[0].Title, "projects", "first title mismatch")
		assert.Equal(t, created[0].ParentID, "nb-1", "first parent mismatch")
		assert.Equal(t, created[1].Title, "alpha", "second title mismatch")
	})

	t.Run("ensure root is a no-op", func(t *testing.T) {
		cache := NewNotebookCache(clock.NewMock(), time.Minute)

		id, err := cache.Ensure(stdctx.Background(), testCtx("http://localhost:0"), "")

		assert.Equal(t, err, nil, "error mismatch")
		assert.Equal(t, id, "", "id mismatch")
	})
}

func TestResourceLinks(t *testing.T) {
	resourceID := "0123456789abcdef0123456789abcdef"
	body := fmt.Sprintf("see ![diagram](:/%s) and [doc](:/%s)", resourceID, resourceID)

	t.Run("extract", func(t *testing.T) {
		got := ExtractResourceIDs(body)

		assert.DeepEqual(t, got, []string{resourceID}, "ids mismatch")
	})

	t.Run("rewrite", func(t *testing.T) {
		got := RewriteResourceLinks(body, map[string]string{resourceID: "attachments/diagram.png"})

		assert.Equal(t, got, "see ![diagram](attachments/diagram.png) and [doc](attachments/diagram.png)", "body mismatch")
	})

	t.Run("unknown id untouched", func(t *testing.T) {
		got := RewriteResourceLinks(body, nil)

		assert.Equal(t, got, body, "body mismatch")
	})
}
