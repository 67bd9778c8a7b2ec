package backup

import "time"

// RestoreMode determines how to handle existing data.
type RestoreMode string

const (
	// RestoreModeFull replaces every collection with the backup's contents
	// and signs out the saved session.
	RestoreModeFull RestoreMode = "full"

	// RestoreModeMerge adds backup records whose IDs are not already present.
	// Local records win on conflict.
	RestoreModeMerge RestoreMode = "merge"
)

// Valid returns true if the restore mode is recognized.
func (m RestoreMode) Valid() bool {
	switch m {
	case RestoreModeFull, RestoreModeMerge:
		return true
	default:
		return false
	}
}

// RestoreOptions configures restoration.
type RestoreOptions struct {
	Mode   RestoreMode
	DryRun bool // validate and count without writing
}

// Result contains the outcome of a backup operation.
type Result struct {
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Counts   EntityCounts  `json:"counts"`
	Duration time.Duration `json:"duration"`
	Checksum string        `json:"checksum"`
}

// Info describes an existing backup.
type Info struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Imported EntityCounts  `json:"imported"`
	Skipped  EntityCounts  `json:"skipped"`
	DryRun   bool          `json:"dry_run"`
	Duration time.Duration `json:"duration"`

	// Conflicts lists archived usernames refused because their email or
	// username belongs to another local account.
	Conflicts []string `json:"conflicts,omitempty"`
}
