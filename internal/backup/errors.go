// Package backup exports the marketplace collections to zip archives and
// restores them.
package backup

import domainerrors "github.com/bookexchange/bookexchange/internal/errors"

var (
	// ErrInvalidManifest indicates the manifest is missing or malformed.
	ErrInvalidManifest = domainerrors.Validation("invalid or missing manifest")

	// ErrVersionMismatch indicates the backup format is not supported.
	ErrVersionMismatch = domainerrors.Validation("backup version not supported")

	// ErrCorruptedBackup indicates the backup failed integrity checks.
	ErrCorruptedBackup = domainerrors.Validation("backup integrity check failed")

	// ErrBackupNotFound indicates the requested backup does not exist.
	ErrBackupNotFound = domainerrors.NotFound("backup not found")
)
