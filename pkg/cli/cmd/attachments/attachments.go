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

package attachments

import (
	stdctx "context"
	"path"

	"github.com/gorf/notebridge/pkg/cli/client"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/vault"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new fix-attachments command
func NewCmd(ctx context.NotebridgeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix-attachments",
		Short: "Download service attachments and rewrite links in vault files",
		Long: `Vault files created from service notes can carry links to
attachments that only exist on the service. fix-attachments downloads
those files into the vault's attachments directory and points the links
at the local copies.`,
		RunE: newRun(ctx),
	}

	return cmd
}

// fetch downloads a resource into the vault and returns its vault-relative
// path. Already-fetched resources are reused.
func fetch(ctx stdctx.Context, nctx context.NotebridgeCtx, v *vault.Vault, id string, fetched map[string]string) (string, error) {
	if rel, ok := fetched[id]; ok {
		return rel, nil
	}

	res, err := client.GetResource(ctx, nctx, id)
	if err != nil {
		return "", errors.Wrapf(err, "fetching resource %s", id)
	}

	name := res.Filename
	if name == "" {
		name = res.Title
	}
	if name == "" {
		name = res.ID
	}

	data, err := client.DownloadResource(ctx, nctx, id)
	if err != nil {
		return "", errors.Wrapf(err, "downloading resource %s", id)
	}

	rel, err := v.WriteAttachment(name, data)
	if err != nil {
		return "", errors.Wrapf(err, "writing attachment for %s", id)
	}

	fetched[id] = rel

	return rel, nil
}

// relLink makes an attachment path relative to the linking file's folder
func relLink(filePath, attachmentRel string) string {
	dir := path.Dir(filePath)
	if dir == "." {
		return attachmentRel
	}

	up := ""
	for i := 0; i < countSegments(dir); i++ {
		up += "../"
	}

	return up + attachmentRel
}

func countSegments(dir string) int {
	if dir == "" || dir == "." {
		return 0
	}

	n := 1
	for _, r := range dir {
		if r == '/' {
			n++
		}
	}

	return n
}

// Run downloads every service attachment linked from vault files and
// rewrites the links in place
func Run(ctx stdctx.Context, nctx context.NotebridgeCtx) error {
	if nctx.APIToken == "" {
		return errors.New("no API token. Run `notebridge login` or set NOTEBRIDGE_API_TOKEN")
	}

	v := vault.New(nctx.VaultPath)

	files, err := v.List()
	if err != nil {
		return errors.Wrap(err, "listing the vault")
	}

	fetched := map[string]string{}
	var rewritten int

	for _, f := range files {
		ids := client.ExtractResourceIDs(f.Content)
		if len(ids) == 0 {
			continue
		}

		paths := map[string]string{}
		for _, id := range ids {
			rel, err := fetch(ctx, nctx, v, id, fetched)
			if err != nil {
				log.Warnf("skipping resource %s in %s: %v\n", id, f.Path, err)
				continue
			}

			paths[id] = relLink(f.Path, rel)
		}

		if len(paths) == 0 {
			continue
		}

		content := client.RewriteResourceLinks(f.Content, paths)
		if content == f.Content {
			continue
		}

		// keep the file's own modification time so that the rewrite does
		// not read as a content change on the next pass
		if err := v.Update(f.Path, content, f.ModifiedAt); err != nil {
			log.Warnf("rewriting %s: %v\n", f.Path, err)
			continue
		}

		rewritten++
	}

	log.Successf("downloaded %d attachment(s), rewrote %d file(s)\n", len(fetched), rewritten)

	return nil
}

func newRun(ctx context.NotebridgeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		return Run(cmd.Context(), ctx)
	}
}
