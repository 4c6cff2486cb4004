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

// Package consts provides definitions of constants
package consts

var (
	// NotebridgeDirName is the name of the directory containing notebridge files
	NotebridgeDirName = "notebridge"
	// NotebridgeDBFileName is a filename for the notebridge SQLite database
	NotebridgeDBFileName = "notebridge.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "notebridgerc"
	// EnvFilename is the name of the optional dotenv file next to the config file
	EnvFilename = ".env"

	// EnvAPIToken is the environment variable holding the note service API token
	EnvAPIToken = "NOTEBRIDGE_API_TOKEN"

	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemLastSyncAt is the timestamp at which the last pass completed
	SystemLastSyncAt = "last_sync_time"
	// SystemLastUpgrade is the timestamp at which the system most recently checked for an upgrade
	SystemLastUpgrade = "last_upgrade"
	// SystemAPIToken is the note service API token
	SystemAPIToken = "api_token"

	// TrashFolderName is the holding area directory inside the vault for
	// soft-deleted documents
	TrashFolderName = ".trash"
	// TrashNotebookName is the holding notebook on the note service for
	// soft-deleted notes
	TrashNotebookName = "Deleted"
	// AttachmentsDirName is the vault directory for downloaded resources
	AttachmentsDirName = "attachments"
	// RootContainerName labels notes that live at the top level of a side
	RootContainerName = ""
)
