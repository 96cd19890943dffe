// Package types provides core data types for the accela Steam library
// cleanup tool. It includes the game record produced by scanning, the
// itemized result returned by destructive operations, and size formatting
// helpers.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// placeholderName matches generic manifest names like "App_12345" that Steam
// writes when no real name is known. Display falls back to the install
// directory name for these.
var placeholderName = regexp.MustCompile(`^App_\d+$`)

// ErrIncompleteRecord indicates a GameRecord is missing required fields.
var ErrIncompleteRecord = errors.New("incomplete game record")

// GameRecord identifies one installed game discovered in a Steam library.
// Records are created fresh on every scan and are never mutated; callers
// must re-validate against the filesystem before acting on one.
type GameRecord struct {
	// AppID is the numeric Steam app identifier as a string.
	AppID string `json:"app_id"`

	// Name is the name recorded in the manifest, unmodified.
	Name string `json:"name"`

	// DisplayName is the name to present to the operator. It falls back to
	// InstallDir when Name matches the App_<digits> placeholder pattern.
	DisplayName string `json:"display_name"`

	// InstallDir is the directory-name component recorded in the manifest,
	// not a full path.
	InstallDir string `json:"install_dir"`

	// ManifestPath is the absolute path to the appmanifest_<AppID>.acf file.
	ManifestPath string `json:"manifest_path"`

	// GamePath is the absolute path <LibraryPath>/steamapps/common/<InstallDir>.
	GamePath string `json:"game_path"`

	// LibraryPath is the absolute path to the Steam library root.
	LibraryPath string `json:"library_path"`

	// SizeBytes is the recursive size of GamePath computed at scan time.
	// Best-effort: unreadable files contribute 0.
	SizeBytes int64 `json:"size_bytes"`
}

// Validate reports whether the record is fully populated. Partial records
// are never accepted by the deletion engines.
func (r *GameRecord) Validate() error {
	switch {
	case r.AppID == "":
		return fmt.Errorf("%w: missing app id", ErrIncompleteRecord)
	case r.InstallDir == "":
		return fmt.Errorf("%w: missing install dir", ErrIncompleteRecord)
	case r.ManifestPath == "":
		return fmt.Errorf("%w: missing manifest path", ErrIncompleteRecord)
	case r.GamePath == "":
		return fmt.Errorf("%w: missing game path", ErrIncompleteRecord)
	case r.LibraryPath == "":
		return fmt.Errorf("%w: missing library path", ErrIncompleteRecord)
	}
	return nil
}

// HumanSize returns SizeBytes formatted as a human-readable string.
func (r *GameRecord) HumanSize() string {
	return FormatSize(r.SizeBytes)
}

// DisplayNameFor returns the operator-facing name for a manifest name and
// install directory, applying the placeholder fallback.
func DisplayNameFor(name, installDir string) string {
	if placeholderName.MatchString(name) {
		return installDir
	}
	return name
}

// RemovalType tags a removal as a file or a directory.
type RemovalType string

const (
	// RemovalFile marks the removal of a single file.
	RemovalFile RemovalType = "file"
	// RemovalDirectory marks the recursive removal of a directory.
	RemovalDirectory RemovalType = "directory"
)

// Removal is one entry in the append-only audit trail of a destructive
// operation.
type Removal struct {
	Type   RemovalType `json:"type"`
	Path   string      `json:"path"`
	Size   int64       `json:"size"`
	Reason string      `json:"reason"`
}

// CleanupResult is the outcome of one destructive operation. It is created
// at the start of the call, mutated only by that call, and immutable once
// returned. A non-empty Errors list does not necessarily imply
// Success=false: partial success is representable.
type CleanupResult struct {
	Success         bool      `json:"success"`
	FilesRemoved    int       `json:"files_removed"`
	DirsRemoved     int       `json:"dirs_removed"`
	SpaceFreedBytes int64     `json:"space_freed_bytes"`
	Removals        []Removal `json:"removals"`
	Errors          []string  `json:"errors,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
	DryRun          bool      `json:"dry_run,omitempty"`
}

// AddRemoval appends a removal to the audit trail and updates the counters
// so that the sum of removal sizes always equals SpaceFreedBytes.
func (c *CleanupResult) AddRemoval(rem Removal) {
	c.Removals = append(c.Removals, rem)
	c.SpaceFreedBytes += rem.Size
	switch rem.Type {
	case RemovalFile:
		c.FilesRemoved++
	case RemovalDirectory:
		c.DirsRemoved++
	}
}

// AddError appends a human-readable failure string.
func (c *CleanupResult) AddError(format string, args ...interface{}) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}

// AddWarning appends a warning-class message. Warnings never affect Success.
func (c *CleanupResult) AddWarning(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// HumanSpaceFreed returns SpaceFreedBytes formatted for display.
func (c *CleanupResult) HumanSpaceFreed() string {
	return FormatSize(c.SpaceFreedBytes)
}

// Summary returns a one-line description of the result suitable for logs
// and CLI output.
func (c *CleanupResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files, %d directories removed (%s freed)",
		c.FilesRemoved, c.DirsRemoved, c.HumanSpaceFreed())
	if len(c.Errors) > 0 {
		fmt.Fprintf(&b, ", %d errors", len(c.Errors))
	}
	if c.DryRun {
		b.WriteString(" [dry run]")
	}
	return b.String()
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
