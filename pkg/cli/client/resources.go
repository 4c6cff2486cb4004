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
	"regexp"

	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/pkg/errors"
)

// Resource is an attachment resource on the service
type Resource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
}

type resourcesPage struct {
	Items   []Resource `json:"items"`
	HasMore bool       `json:"has_more"`
}

// ListNoteResources fetches the attachment resources referenced by a note
func ListNoteResources(ctx stdctx.Context, nctx context.NotebridgeCtx, noteID string) ([]Resource, error) {
	path := fmt.Sprintf("/notes/%s/resources?fields=id,title,filename,mime", noteID)
	body, err := doAuthorizedReq(ctx, nctx, "GET", path, "", nil)
	if err != nil {
		return nil, errors.Wrap(err, "making the request")
	}

	var resp resourcesPage
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshalling the payload")
	}

	return resp.Items, nil
}

// GetResource fetches the metadata of a single resource
func GetResource(ctx stdctx.Context, nctx context.NotebridgeCtx, id string) (Resource, error) {
	var ret Resource

	path := fmt.Sprintf("/resources/%s?fields=id,title,filename,mime", id)
	body, err := doAuthorizedReq(ctx, nctx, "GET", path, "", nil)
	if err != nil {
		return ret, errors.Wrap(err, "making the request")
	}

	if err = json.Unmarshal(body, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling the payload")
	}

	return ret, nil
}

// DownloadResource fetches the raw file content of a resource
func DownloadResource(ctx stdctx.Context, nctx context.NotebridgeCtx, id string) ([]byte, error) {
	path := fmt.Sprintf("/resources/%s/file", id)
	body, err := doAuthorizedReq(ctx, nctx, "GET", path, "", &requestOptions{ExpectedContentType: &contentTypeNone})
	if err != nil {
		return nil, errors.Wrap(err, "making the request")
	}

	return body, nil
}

// resourceLinkRe matches service-internal resource links of the form
// '![label](:/32hexid)' or '[label](:/32hexid)'
var resourceLinkRe = regexp.MustCompile(`(!?\[[^\]]*\])\(:/([0-9a-fA-F]{32})\)`)

// ExtractResourceIDs returns the ids of every resource a body links to,
// in order of first appearance
func ExtractResourceIDs(body string) []string {
	var ret []string
	seen := map[string]bool{}

	for _, m := range resourceLinkRe.FindAllStringSubmatch(body, -1) {
		id := m[2]
		if seen[id] {
			continue
		}
		seen[id] = true
		ret = append(ret, id)
	}

	return ret
}

// RewriteResourceLinks replaces service-internal resource links with the
// given local paths. Links to unknown resources are left alone.
func RewriteResourceLinks(body string, paths map[string]string) string {
	return resourceLinkRe.ReplaceAllStringFunc(body, func(link string) string {
		m := resourceLinkRe.FindStringSubmatch(link)
		path, ok := paths[m[2]]
		if !ok {
			return link
		}

		return fmt.Sprintf("%s(%s)", m[1], path)
	})
}
