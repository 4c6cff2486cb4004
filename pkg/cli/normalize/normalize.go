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

// Package normalize reduces note bodies to a canonical plain-text form so
// that the same note stored on the two sides hashes to the same value, no
// matter which markdown surface differences each side introduced.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/gorf/notebridge/pkg/cli/syncmeta"
)

var (
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTagRe     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	listMarkerRe  = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
	blockquoteRe  = regexp.MustCompile(`(?m)^\s*>+\s?`)
	tableRuleRe   = regexp.MustCompile(`(?m)^\s*\|?[-:| ]+\|?\s*$`)
	emphasisRe    = regexp.MustCompile("[*_`~]+")
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize strips sync metadata, frontmatter and markdown markup from a
// note body and collapses whitespace. It is pure and deterministic.
func Normalize(body string) string {
	s := syncmeta.Strip(body)

	// a frontmatter block surviving the record strip is user metadata,
	// not content
	if rest, ok := dropFrontmatter(s); ok {
		s = rest
	}

	s = htmlCommentRe.ReplaceAllString(s, " ")
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = imageRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = listMarkerRe.ReplaceAllString(s, "")
	s = blockquoteRe.ReplaceAllString(s, "")
	s = tableRuleRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "|", " ")
	s = emphasisRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

func dropFrontmatter(s string) (string, bool) {
	lines := strings.Split(s, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return s, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			return strings.Join(lines[i+1:], "\n"), true
		}
	}

	return s, false
}

// Hash returns the sha256 hex digest of the normalized body
func Hash(body string) string {
	sum := sha256.Sum256([]byte(Normalize(body)))

	return hex.EncodeToString(sum[:])
}

// IsEmpty reports whether nothing but whitespace and markup survives
// normalization
func IsEmpty(body string) bool {
	return Normalize(body) == ""
}
