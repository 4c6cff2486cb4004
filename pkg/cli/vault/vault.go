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

// Package vault reads and writes the markdown file tree that forms the
// local side of a sync. All paths exposed by this package are relative to
// the vault root and slash-separated.
package vault

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/utils"
	"github.com/pkg/errors"
)

// ErrNotFound is an error for a path that does not exist in the vault
var ErrNotFound = errors.New("file not found in vault")

// File is a markdown file in the vault
type File struct {
	// Path is the vault-relative path of the file
	Path string
	// Title is the file name without the extension
	Title string
	// Folder is the vault-relative directory, empty at the root
	Folder     string
	Content    string
	ModifiedAt time.Time
}

// Vault is a handle on a markdown tree rooted at a single directory
type Vault struct {
	root string
	// mu serializes folder creation so concurrent workers do not race on
	// MkdirAll and the collision probing in Create
	mu sync.Mutex
}

// New creates a vault handle for the given root directory
func New(root string) *Vault {
	return &Vault{root: root}
}

// Root returns the vault root directory
func (v *Vault) Root() string {
	return v.root
}

func (v *Vault) abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

func title(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

func folder(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return consts.RootContainerName
	}

	return dir
}

// List walks the vault and returns every markdown file. Hidden
// directories, including the holding area, are skipped.
func (v *Vault) List() ([]File, error) {
	var ret []File

	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return errors.Wrapf(err, "resolving %s", p)
		}
		rel = filepath.ToSlash(rel)

		f, err := v.Read(rel)
		if err != nil {
			return errors.Wrapf(err, "reading %s", rel)
		}
		ret = append(ret, f)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking the vault")
	}

	return ret, nil
}

// Read loads a single file by its vault-relative path
func (v *Vault) Read(rel string) (File, error) {
	abs := v.abs(rel)

	fi, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, errors.Wrapf(err, "checking %s", rel)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return File{}, errors.Wrapf(err, "reading %s", rel)
	}

	return File{
		Path:       rel,
		Title:      title(rel),
		Folder:     folder(rel),
		Content:    string(content),
		ModifiedAt: fi.ModTime().UTC(),
	}, nil
}

// SanitizeFilename turns a note title into a safe file name stem.
// Characters that are unsafe on common filesystems are replaced and the
// result is length-capped.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "-",
		"\x00", "",
	)
	ret := replacer.Replace(name)
	ret = strings.Trim(ret, " .")

	if len(ret) > 120 {
		ret = strings.TrimRight(ret[:120], " .")
	}
	if ret == "" {
		ret = "untitled"
	}

	return ret
}

// Create writes a new file for the given title under folder, setting its
// modification time to modTime. A name collision gets a short sync id
// suffix, and a numeric suffix after that. Returns the vault-relative
// path of the written file.
func (v *Vault) Create(folder, noteTitle, content, syncID string, modTime time.Time) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureFolderLocked(folder); err != nil {
		return "", err
	}

	stem := SanitizeFilename(noteTitle)
	rel := path.Join(folder, stem+".md")

	if ok, err := utils.FileExists(v.abs(rel)); err != nil {
		return "", errors.Wrapf(err, "checking %s", rel)
	} else if ok && syncID != "" {
		suffix := syncID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		rel = path.Join(folder, stem+" ("+suffix+").md")
	}

	abs, err := utils.UniquePath(v.abs(rel))
	if err != nil {
		return "", errors.Wrapf(err, "finding a unique path for %s", rel)
	}

	if err := v.writeLocked(abs, content, modTime); err != nil {
		return "", err
	}

	rel, err = filepath.Rel(v.root, abs)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", abs)
	}

	return filepath.ToSlash(rel), nil
}

// Update overwrites an existing file, setting its modification time to
// modTime
func (v *Vault) Update(rel, content string, modTime time.Time) error {
	ok, err := utils.FileExists(v.abs(rel))
	if err != nil {
		return errors.Wrapf(err, "checking %s", rel)
	}
	if !ok {
		return ErrNotFound
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.writeLocked(v.abs(rel), content, modTime)
}

func (v *Vault) writeLocked(abs, content string, modTime time.Time) error {
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", abs)
	}
	if err := os.Chtimes(abs, modTime, modTime); err != nil {
		return errors.Wrapf(err, "setting times on %s", abs)
	}

	return nil
}

// Move relocates a file into another folder, creating the folder as
// needed. Returns the new vault-relative path.
func (v *Vault) Move(rel, newFolder string) (string, error) {
	ok, err := utils.FileExists(v.abs(rel))
	if err != nil {
		return "", errors.Wrapf(err, "checking %s", rel)
	}
	if !ok {
		return "", ErrNotFound
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureFolderLocked(newFolder); err != nil {
		return "", err
	}

	dest, err := utils.UniquePath(v.abs(path.Join(newFolder, path.Base(rel))))
	if err != nil {
		return "", errors.Wrap(err, "finding a unique path")
	}

	if err := os.Rename(v.abs(rel), dest); err != nil {
		return "", errors.Wrapf(err, "moving %s", rel)
	}

	ret, err := filepath.Rel(v.root, dest)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", dest)
	}

	return filepath.ToSlash(ret), nil
}

// SoftDelete moves a file into the holding area instead of removing it.
// Returns the holding-area path the file ended up at.
func (v *Vault) SoftDelete(rel string) (string, error) {
	return v.Move(rel, consts.TrashFolderName)
}

// EnsureFolder creates a folder, and any missing parents, under the vault
// root
func (v *Vault) EnsureFolder(folder string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ensureFolderLocked(folder)
}

func (v *Vault) ensureFolderLocked(folder string) error {
	if folder == consts.RootContainerName {
		return nil
	}

	if err := os.MkdirAll(v.abs(folder), 0755); err != nil {
		return errors.Wrapf(err, "creating folder %s", folder)
	}

	return nil
}

// WriteAttachment stores a downloaded resource under the attachments
// directory and returns its vault-relative path
func (v *Vault) WriteAttachment(name string, data []byte) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureFolderLocked(consts.AttachmentsDirName); err != nil {
		return "", err
	}

	stem := SanitizeFilename(strings.TrimSuffix(name, path.Ext(name)))
	rel := path.Join(consts.AttachmentsDirName, stem+path.Ext(name))

	abs, err := utils.UniquePath(v.abs(rel))
	if err != nil {
		return "", errors.Wrap(err, "finding a unique path")
	}

	if err := os.WriteFile(abs, data, 0644); err != nil {
		return "", errors.Wrapf(err, "writing %s", rel)
	}

	ret, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", abs)
	}

	return filepath.ToSlash(ret), nil
}
