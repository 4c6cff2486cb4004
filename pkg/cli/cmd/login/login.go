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

package login

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/infra"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
)

// ErrEmptyToken is an error for an empty API token
var ErrEmptyToken = errors.New("token is empty")

// NewCmd returns a new login command
func NewCmd(ctx context.NotebridgeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the note service API token",
		RunE:  newRun(ctx),
	}

	return cmd
}

func readToken() (string, error) {
	log.Askf("API token: ", true)

	b, err := terminal.ReadPassword(int(syscall.Stdin))
	fmt.Println("")
	if err != nil {
		return "", errors.Wrap(err, "reading token")
	}

	return strings.TrimSpace(string(b)), nil
}

// Do stores the given token in the system table
func Do(ctx context.NotebridgeCtx, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	if err := database.UpsertSystem(ctx.DB, consts.SystemAPIToken, token); err != nil {
		return errors.Wrap(err, "storing token")
	}

	return nil
}

func newRun(ctx context.NotebridgeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		token, err := readToken()
		if err != nil {
			return errors.Wrap(err, "getting token input")
		}

		if err := Do(ctx, token); err != nil {
			return err
		}

		log.Success("logged in\n")

		return nil
	}
}
