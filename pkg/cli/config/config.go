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

// Package config loads and persists the notebridge configuration file
package config

import (
	"fmt"
	"os"

	"github.com/gorf/notebridge/pkg/cli/consts"
	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/rules"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds notebridge configuration
type Config struct {
	APIEndpoint string      `yaml:"apiEndpoint"`
	VaultPath   string      `yaml:"vaultPath"`
	Workers     int         `yaml:"workers"`
	Rules       rules.Rules `yaml:"syncRules"`
}

// GetPath returns the path to the notebridge config file
func GetPath(ctx context.NotebridgeCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.NotebridgeDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.NotebridgeCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.NotebridgeCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
