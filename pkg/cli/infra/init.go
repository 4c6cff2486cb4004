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

// Package infra provides operations and definitions for the
// local infrastructure for notebridge
package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorf/notebridge/pkg/cli/client"
	"github.com/gorf/notebridge/pkg/cli/config"
	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/database"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/gorf/notebridge/pkg/cli/migrate"
	"github.com/gorf/notebridge/pkg/cli/utils"
	"github.com/gorf/notebridge/pkg/clock"
	"github.com/gorf/notebridge/pkg/dirs"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default note service API endpoint used
	// when none is configured
	DefaultAPIEndpoint = "http://localhost:41184"
)

// RunEFunc is a function type of notebridge commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.NotebridgeDirName, consts.NotebridgeDBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.NotebridgeCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitNotebridgeDirs(paths); err != nil {
		return context.NotebridgeCtx{}, errors.Wrap(err, "creating the notebridge dirs")
	}

	dbPath := getDBPath(paths, customDBPath)

	db, err := database.Open(dbPath)
	if err != nil {
		return context.NotebridgeCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.NotebridgeCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the notebridge environment and returns a new notebridge
// context. apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.NotebridgeCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := InitDB(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	if err := migrate.Run(ctx); err != nil {
		return nil, errors.Wrap(err, "running migration")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from the config file, the
// optional dotenv file and the database. This is called after files and
// database have been initialized.
func setupCtx(ctx context.NotebridgeCtx) (context.NotebridgeCtx, error) {
	envPath := filepath.Join(ctx.Paths.Config, consts.NotebridgeDirName, consts.EnvFilename)
	if ok, _ := utils.FileExists(envPath); ok {
		if err := godotenv.Load(envPath); err != nil {
			return ctx, errors.Wrap(err, "loading env file")
		}
	}

	token, err := resolveAPIToken(ctx.DB)
	if err != nil {
		return ctx, errors.Wrap(err, "resolving api token")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	endpoint := cf.APIEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	ret := context.NotebridgeCtx{
		Paths:       ctx.Paths,
		Version:     ctx.Version,
		DB:          ctx.DB,
		APIEndpoint: endpoint,
		APIToken:    token,
		VaultPath:   cf.VaultPath,
		Workers:     cf.Workers,
		Rules:       cf.Rules,
		Clock:       clock.New(),
		HTTPClient:  client.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

// resolveAPIToken prefers the token from the environment over the one
// stored in the system table
func resolveAPIToken(db *database.DB) (string, error) {
	if token := os.Getenv(consts.EnvAPIToken); token != "" {
		return token, nil
	}

	var token string
	err := database.GetSystem(db, consts.SystemAPIToken, &token)
	if errors.Cause(err) == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "finding api token")
	}

	return token, nil
}

// InitDB creates the tables and indices the state store needs
func InitDB(ctx context.NotebridgeCtx) error {
	log.Debug("initializing the database\n")

	db := ctx.DB

	if _, err := db.Exec(database.GetDefaultSchemaSQL()); err != nil {
		return errors.Wrap(err, "creating schema")
	}

	return nil
}

func initSystemKV(tx *sql.Tx, key string, val string) error {
	var count int
	if err := tx.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := tx.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.NotebridgeCtx) error {
	log.Debug("initializing the system\n")

	db := ctx.DB

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	nowStr := strconv.FormatInt(time.Now().Unix(), 10)
	if err := initSystemKV(tx, consts.SystemSchema, "0"); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemSchema)
	}
	if err := initSystemKV(tx, consts.SystemLastUpgrade, nowStr); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastUpgrade)
	}
	if err := initSystemKV(tx, consts.SystemLastSyncAt, "0"); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastSyncAt)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.NotebridgeCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	vaultPath := filepath.Join(ctx.Paths.Home, "vault")

	cf := config.Config{
		APIEndpoint: endpoint,
		VaultPath:   vaultPath,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
