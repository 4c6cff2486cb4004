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

// Package upgrade checks GitHub releases for a newer notebridge version
package upgrade

import (
	stdctx "context"
	"strconv"
	"strings"

	"github.com/google/go-github/github"
	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/pkg/errors"
)

// upgradeInterval is the minimum number of seconds between checks
const upgradeInterval = 86400 * 7

const (
	repoOwner = "gorf"
	repoName  = "notebridge"
)

// parseVersion splits a version tag into its numeric segments. A leading
// "v" is tolerated.
func parseVersion(tag string) ([]int, error) {
	tag = strings.TrimPrefix(tag, "v")

	parts := strings.Split(tag, ".")
	ret := make([]int, 0, len(parts))

	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing version segment %s", p)
		}

		ret = append(ret, n)
	}

	return ret, nil
}

// newerVersion reports whether the candidate tag is newer than the
// current tag
func newerVersion(current, candidate string) (bool, error) {
	cur, err := parseVersion(current)
	if err != nil {
		return false, errors.Wrap(err, "parsing current version")
	}
	cand, err := parseVersion(candidate)
	if err != nil {
		return false, errors.Wrap(err, "parsing candidate version")
	}

	for i := 0; i < len(cand); i++ {
		if i >= len(cur) {
			return true, nil
		}
		if cand[i] != cur[i] {
			return cand[i] > cur[i], nil
		}
	}

	return false, nil
}

func fetchLatestTag(ctx stdctx.Context, nctx context.NotebridgeCtx) (string, error) {
	gh := github.NewClient(nctx.HTTPClient)

	release, _, err := gh.Repositories.GetLatestRelease(ctx, repoOwner, repoName)
	if err != nil {
		return "", errors.Wrap(err, "fetching the latest release")
	}

	return release.GetTagName(), nil
}

func shouldCheck(nctx context.NotebridgeCtx) (bool, error) {
	// development builds carry no comparable version
	if nctx.Version == "master" || nctx.Version == "dev" {
		return false, nil
	}

	var lastUpgrade int64
	if err := database.GetSystem(nctx.DB, consts.SystemLastUpgrade, &lastUpgrade); err != nil {
		return false, errors.Wrap(err, "getting last upgrade timestamp")
	}

	now := nctx.Clock.Now().Unix()

	return now-lastUpgrade >= upgradeInterval, nil
}

// Check prints a notice if a newer release is available. It runs at most
// once per upgradeInterval.
func Check(ctx stdctx.Context, nctx context.NotebridgeCtx) error {
	ok, err := shouldCheck(nctx)
	if err != nil {
		return errors.Wrap(err, "checking eligibility")
	}
	if !ok {
		return nil
	}

	latest, err := fetchLatestTag(ctx, nctx)
	if err != nil {
		return errors.Wrap(err, "fetching latest version")
	}

	now := nctx.Clock.Now().Unix()
	if err := database.UpsertSystem(nctx.DB, consts.SystemLastUpgrade, strconv.FormatInt(now, 10)); err != nil {
		return errors.Wrap(err, "updating last upgrade timestamp")
	}

	newer, err := newerVersion(nctx.Version, latest)
	if err != nil {
		return errors.Wrap(err, "comparing versions")
	}

	if newer {
		log.Infof("a newer version %s is available. Please upgrade.\n", latest)
	}

	return nil
}
