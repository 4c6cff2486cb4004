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

// Package syncmeta encodes and decodes the sync record that ties the two
// copies of a note together. On the note service the record lives in HTML
// comment lines at the top of the note body. In the vault it lives in the
// YAML frontmatter of the markdown file, merged with whatever frontmatter
// the user already keeps there.
//
// All knowledge of the physical encodings is confined to this package.
package syncmeta

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorf/notebridge/pkg/cli/utils"
	yaml "gopkg.in/yaml.v2"
)

// RecordVersion is the version written into newly embedded records
const RecordVersion = 1

// Source values identifying which side a note was first created on
const (
	SourceService = "service"
	SourceVault   = "vault"
)

const (
	keyID      = "notebridge_id"
	keyTime    = "notebridge_sync_time"
	keySource  = "notebridge_source"
	keyVersion = "notebridge_version"
)

// Record is the sync metadata embedded in a note
type Record struct {
	ID      string
	Time    time.Time
	Source  string
	Version int
}

func (r Record) valid() bool {
	return utils.IsUUID(r.ID) && !r.Time.IsZero()
}

// timeLayouts accepted when parsing sync_time. Records written by older
// tools carry a naive ISO timestamp without a zone, read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func isMetaKey(key string) bool {
	switch key {
	case keyID, keyTime, keySource, keyVersion:
		return true
	}

	return false
}

// parseMarker parses a single HTML comment line of the form
// '<!-- notebridge_key: value -->'. Returns false for anything else.
func parseMarker(line string) (string, string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "<!--") || !strings.HasSuffix(s, "-->") {
		return "", "", false
	}

	inner := strings.TrimSpace(s[len("<!--") : len(s)-len("-->")])
	parts := strings.SplitN(inner, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}

	key := strings.TrimSpace(parts[0])
	if !isMetaKey(key) {
		return "", "", false
	}

	return key, strings.TrimSpace(parts[1]), true
}

func recordFromFields(fields map[string]string) (Record, bool) {
	id, ok := fields[keyID]
	if !ok {
		return Record{}, false
	}

	rec := Record{ID: id, Source: fields[keySource]}
	if t, ok := parseTime(fields[keyTime]); ok {
		rec.Time = t
	}
	if v, err := strconv.Atoi(fields[keyVersion]); err == nil {
		rec.Version = v
	}

	return rec, true
}

// scanComments walks the body line by line collecting every comment-encoded
// record in order of appearance. The second return value is the body with
// the marker lines removed.
func scanComments(body string) ([]Record, string) {
	var records []Record
	var kept []string
	fields := map[string]string{}

	flush := func() {
		if rec, ok := recordFromFields(fields); ok {
			records = append(records, rec)
		}
		fields = map[string]string{}
	}

	for _, line := range strings.Split(body, "\n") {
		key, val, ok := parseMarker(line)
		if !ok {
			kept = append(kept, line)
			continue
		}

		if _, seen := fields[key]; seen {
			flush()
		}
		fields[key] = val
	}
	flush()

	return records, strings.Join(kept, "\n")
}

// splitFrontmatter splits content into the frontmatter block, without its
// fences, and the remaining body. ok is false when the content does not
// start with a frontmatter fence.
func splitFrontmatter(content string) (string, string, bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return "", content, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, body, true
		}
	}

	return "", content, false
}

// frontmatterRecord extracts a record from a frontmatter block. rest holds
// the remaining frontmatter entries in their original order. parsed is
// false when the block is not valid YAML; the caller must then keep the
// block verbatim, since entries that fail to parse are still user content.
func frontmatterRecord(fm string) (Record, bool, yaml.MapSlice, bool) {
	var items yaml.MapSlice
	if err := yaml.Unmarshal([]byte(fm), &items); err != nil {
		return Record{}, false, nil, false
	}

	fields := map[string]string{}
	var rest yaml.MapSlice
	for _, item := range items {
		key, ok := item.Key.(string)
		if !ok || !isMetaKey(key) {
			rest = append(rest, item)
			continue
		}

		fields[key] = fmt.Sprintf("%v", item.Value)
	}

	rec, ok := recordFromFields(fields)

	return rec, ok, rest, true
}

// dropMetaLines removes record entries from a frontmatter block without
// parsing it as YAML
func dropMetaLines(fm string) string {
	var kept []string
	for _, line := range strings.Split(fm, "\n") {
		trimmed := strings.TrimSpace(line)
		if i := strings.IndexByte(trimmed, ':'); i > 0 && isMetaKey(strings.TrimSpace(trimmed[:i])) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// collect gathers every embedded record in content, both encodings, in
// order of appearance with the frontmatter record first.
func collect(content string) []Record {
	var records []Record

	fm, body, hasFM := splitFrontmatter(content)
	if hasFM {
		if rec, ok, _, _ := frontmatterRecord(fm); ok {
			records = append(records, rec)
		}
	} else {
		body = content
	}

	commentRecs, _ := scanComments(body)
	records = append(records, commentRecs...)

	return records
}

// latest returns the record with the most recent sync time. Ties keep the
// earlier occurrence.
func latest(records []Record) Record {
	win := records[0]
	for _, rec := range records[1:] {
		if rec.Time.After(win.Time) {
			win = rec
		}
	}

	return win
}

// ExtractService parses the sync record from a note service body. It
// tolerates duplicated records by taking the one with the latest sync
// time. Returns false when no well-formed record is present.
func ExtractService(body string) (Record, bool) {
	records := collect(body)
	if len(records) == 0 {
		return Record{}, false
	}

	rec := latest(records)
	if !rec.valid() {
		return Record{}, false
	}

	return rec, true
}

// ExtractVault parses the sync record from a vault file. Same tolerance
// rules as ExtractService.
func ExtractVault(content string) (Record, bool) {
	return ExtractService(content)
}

// EmbedService writes rec into a note service body. Any records already
// present, in either encoding, are removed first so that embedding is
// idempotent.
func commentBlock(rec Record) string {
	return strings.Join([]string{
		fmt.Sprintf("<!-- %s: %s -->", keyID, rec.ID),
		fmt.Sprintf("<!-- %s: %s -->", keyTime, formatTime(rec.Time)),
		fmt.Sprintf("<!-- %s: %s -->", keySource, rec.Source),
		fmt.Sprintf("<!-- %s: %d -->", keyVersion, rec.Version),
	}, "\n")
}

func EmbedService(body string, rec Record) string {
	stripped := Strip(body)

	block := commentBlock(rec)

	stripped = strings.TrimLeft(stripped, "\n")
	if stripped == "" {
		return block + "\n"
	}

	return block + "\n\n" + stripped
}

// EmbedVault writes rec into the frontmatter of a vault file, preserving
// any user frontmatter entries. Records already present in either encoding
// are removed first.
func EmbedVault(content string, rec Record) string {
	fm, body, hasFM := splitFrontmatter(content)

	var rest yaml.MapSlice
	parsed := true
	if hasFM {
		_, _, rest, parsed = frontmatterRecord(fm)
	} else {
		body = content
	}
	_, body = scanComments(body)

	if hasFM && !parsed {
		// frontmatter we cannot parse stays verbatim; the record goes
		// into the comment encoding below it so it remains readable
		body = strings.TrimLeft(body, "\n")
		out := "---\n" + dropMetaLines(fm) + "\n---\n\n" + commentBlock(rec) + "\n"
		if body == "" {
			return out
		}
		return out + "\n" + body
	}

	items := append(rest,
		yaml.MapItem{Key: keyID, Value: rec.ID},
		yaml.MapItem{Key: keyTime, Value: formatTime(rec.Time)},
		yaml.MapItem{Key: keySource, Value: rec.Source},
		yaml.MapItem{Key: keyVersion, Value: rec.Version},
	)

	out, err := yaml.Marshal(items)
	if err != nil {
		// a MapSlice of scalars cannot fail to marshal
		panic(err)
	}

	return "---\n" + string(out) + "---\n\n" + strings.TrimLeft(body, "\n")
}

// Canonicalize collapses multiple embedded records down to the one with
// the latest sync time, written in the encoding the content already uses.
// Content with at most one record is returned unchanged.
func Canonicalize(content string) string {
	records := collect(content)
	if len(records) <= 1 {
		return content
	}

	win := latest(records)
	if _, _, hasFM := splitFrontmatter(content); hasFM {
		return EmbedVault(content, win)
	}

	return EmbedService(content, win)
}

// Strip removes every embedded record from content in both encodings. User
// frontmatter entries other than the sync record are kept.
func Strip(content string) string {
	fm, body, hasFM := splitFrontmatter(content)
	if !hasFM {
		_, stripped := scanComments(content)
		return stripped
	}

	_, _, rest, parsed := frontmatterRecord(fm)
	_, body = scanComments(body)

	if !parsed {
		// unparseable frontmatter is user content; keep it verbatim
		// minus any record lines
		return "---\n" + dropMetaLines(fm) + "\n---\n" + body
	}

	if len(rest) == 0 {
		return strings.TrimLeft(body, "\n")
	}

	out, err := yaml.Marshal(rest)
	if err != nil {
		panic(err)
	}

	return "---\n" + string(out) + "---\n" + body
}
