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

package main

import (
	"os"
	"strings"

	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/pkg/errors"

	// commands
	"github.com/gorf/notebridge/pkg/cli/cmd/attachments"
	"github.com/gorf/notebridge/pkg/cli/cmd/clean"
	"github.com/gorf/notebridge/pkg/cli/cmd/dupes"
	"github.com/gorf/notebridge/pkg/cli/cmd/login"
	"github.com/gorf/notebridge/pkg/cli/cmd/root"
	"github.com/gorf/notebridge/pkg/cli/cmd/sync"
	"github.com/gorf/notebridge/pkg/cli/cmd/version"
	"github.com/gorf/notebridge/pkg/cli/cmd/watch"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the --dbPath flag value from command line arguments
// regardless of where it appears. The database has to be opened before
// cobra parses any flags.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(sync.NewCmd(*ctx))
	root.Register(dupes.NewCmd(*ctx))
	root.Register(clean.NewCmd(*ctx))
	root.Register(attachments.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
