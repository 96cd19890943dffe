// Package safety implements the validation predicates consulted before any
// destructive filesystem operation. Every predicate is fail-closed: a single
// failing check vetoes the operation. The package performs no writes; only
// read-only stat and listdir calls are used.
package safety

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrRejected is the sentinel wrapped by every hard safety rejection.
// Rejection messages carry a "SAFETY:" prefix and name the failing check
// with expected versus actual values.
var ErrRejected = errors.New("operation rejected")

// dangerousDirNames are directory base names that a game install or
// compatdata path must never resolve to.
var dangerousDirNames = []string{
	"windows", "system32", "program files", "programdata", "root",
}

// dangerousSaveDirNames extends the denylist for save-data paths.
var dangerousSaveDirNames = append([]string{"etc", "var"}, dangerousDirNames...)

// criticalFragments are system path fragments that must not appear anywhere
// in a wipe target. Single names are matched against whole path segments;
// fragments containing a separator or space are matched as substrings.
var criticalFragments = []string{
	"windows", "program files", "system32", "usr/bin", "etc", "var",
	"root", "boot", "lib", "opt", "sbin",
}

// compatdataItems are sub-entries a genuine compatdata directory is expected
// to contain. Their absence is a warning, never a block.
var compatdataItems = []string{"pfx", "version", "config_info"}

// reject builds a hard-rejection error.
func reject(format string, args ...interface{}) error {
	return fmt.Errorf("%w: SAFETY: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// IsRejection reports whether err is a safety rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// GameDeletionInput carries the fields ValidateGameDeletion checks. It
// mirrors the populated game record the caller acts on.
type GameDeletionInput struct {
	AppID        string
	InstallDir   string
	ManifestPath string
	GamePath     string
	LibraryPath  string
}

// ValidateGameDeletion runs the single-game deletion predicates. All must
// pass before the manifest or install directory is touched.
//
// Checks: manifest filename matches the app id, game path equals the
// canonical <library>/steamapps/common/<installdir> join, the path contains
// a "common" segment, the directory name is not a known system folder, and
// the install marker proving this tool installed the game is present.
func ValidateGameDeletion(in GameDeletionInput, markerDir string) error {
	if in.ManifestPath == "" || !strings.HasSuffix(in.ManifestPath, ".acf") {
		return reject("invalid manifest path: %q", in.ManifestPath)
	}

	expectedManifest := fmt.Sprintf("appmanifest_%s.acf", in.AppID)
	if filepath.Base(in.ManifestPath) != expectedManifest {
		return reject("manifest filename mismatch: expected %q, got %q",
			expectedManifest, filepath.Base(in.ManifestPath))
	}

	if in.GamePath == "" || !hasSegment(in.GamePath, "common") {
		return reject("invalid game path: %q", in.GamePath)
	}

	expectedGamePath := filepath.Join(in.LibraryPath, "steamapps", "common", in.InstallDir)
	if filepath.Clean(in.GamePath) != filepath.Clean(expectedGamePath) {
		return reject("game path mismatch: expected %q, got %q",
			expectedGamePath, in.GamePath)
	}

	if name := strings.ToLower(filepath.Base(in.GamePath)); isDangerousName(name, dangerousDirNames) {
		return reject("dangerous directory name: %q", name)
	}

	if markerDir != "" {
		marker := filepath.Join(in.GamePath, markerDir)
		if info, err := os.Stat(marker); err != nil || !info.IsDir() {
			return reject("install marker %s not found in %q: not installed by this tool",
				markerDir, in.GamePath)
		}
	}

	return nil
}

// ValidateCompatdataDeletion runs the save-data deletion predicates.
// The structural check (presence of pfx/version/config_info) is soft: its
// failure is returned as a non-empty warning with a nil error.
func ValidateCompatdataDeletion(path, appID string) (warning string, err error) {
	if !isAllDigits(appID) {
		return "", reject("invalid app id format: %q", appID)
	}

	expectedSuffix := filepath.Join("compatdata", appID)
	if !strings.HasSuffix(filepath.Clean(path), expectedSuffix) {
		return "", reject("compatdata path mismatch: expected suffix %q, got %q",
			expectedSuffix, path)
	}

	if name := strings.ToLower(filepath.Base(path)); isDangerousName(name, dangerousSaveDirNames) {
		return "", reject("dangerous compatdata directory name: %q", name)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", reject("cannot list compatdata directory %q: %v", path, err)
	}

	found := 0
	for _, entry := range entries {
		for _, item := range compatdataItems {
			if entry.Name() == item {
				found++
			}
		}
	}
	if found == 0 {
		warning = fmt.Sprintf("compatdata directory %q does not contain the expected structure (%s)",
			path, strings.Join(compatdataItems, ", "))
	}

	return warning, nil
}

// WipeTargetInput carries the fields ValidateWipeTarget checks.
type WipeTargetInput struct {
	// Dir is the install directory to be wiped.
	Dir string
	// GameName is the display name of the game being cancelled.
	GameName string
	// AppID is the numeric app id of the game being cancelled.
	AppID string
	// SessionID is the caller-supplied token scoping this wipe to an active
	// cancel/abort session.
	SessionID string
	// AllowedBases are the Steam base directories a wipe target must resolve
	// under. Paths are expected to be absolute.
	AllowedBases []string
}

// ValidateWipeTarget runs the layered predicates guarding a complete
// install-directory wipe. The blast radius is the whole subtree, so these
// checks are stricter than the single-game deletion set: all of them must
// pass or the wipe is rejected with zero filesystem mutation.
func ValidateWipeTarget(in WipeTargetInput) error {
	if in.GameName == "" || in.AppID == "" {
		return reject("incomplete game data: name=%q appid=%q", in.GameName, in.AppID)
	}

	if in.SessionID == "" {
		return reject("no session id provided: wipe runs only during an active cancel session")
	}

	resolved, err := filepath.EvalSymlinks(in.Dir)
	if err != nil {
		return reject("install directory does not resolve: %q: %v", in.Dir, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return reject("install directory is not absolute: %q: %v", in.Dir, err)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return reject("install directory does not exist or is not a directory: %q", in.Dir)
	}

	if countSegments(resolved) < 4 {
		return reject("directory too close to filesystem root: %q", resolved)
	}

	if !underAnyBase(resolved, in.AllowedBases) {
		return reject("path not under an allowed Steam base directory: %q", resolved)
	}

	if !hasSegment(resolved, "steamapps") || !hasSegment(resolved, "common") {
		return reject("not a Steam game directory (missing steamapps/common): %q", resolved)
	}

	dirName := strings.ToLower(filepath.Base(resolved))
	if !strings.Contains(dirName, strings.ToLower(in.GameName)) {
		return reject("directory name %q does not match game name %q", dirName, in.GameName)
	}

	parent := filepath.Dir(resolved)
	if !strings.EqualFold(filepath.Base(parent), "common") {
		return reject("parent directory is not steamapps/common: %q", resolved)
	}
	if !strings.EqualFold(filepath.Base(filepath.Dir(parent)), "steamapps") {
		return reject("grandparent directory is not steamapps: %q", resolved)
	}

	if frag := matchCriticalFragment(resolved); frag != "" {
		return reject("critical system path fragment %q detected in %q", frag, resolved)
	}

	return nil
}

// ConfirmWipeTarget is the secondary, independent confirmation pass run
// after ValidateWipeTarget. Redundant with it on purpose: a defense-in-depth
// layer that re-verifies game data completeness, session id validity, path
// existence, and the critical-fragment denylist from scratch.
func ConfirmWipeTarget(in WipeTargetInput) error {
	if in.GameName == "" || in.AppID == "" {
		return reject("confirmation failed: incomplete game data")
	}

	const minSessionIDLen = 5
	if len(in.SessionID) < minSessionIDLen {
		return reject("confirmation failed: session id %q shorter than %d characters",
			in.SessionID, minSessionIDLen)
	}

	info, err := os.Stat(in.Dir)
	if err != nil || !info.IsDir() {
		return reject("confirmation failed: invalid directory path %q", in.Dir)
	}

	if frag := matchCriticalFragment(in.Dir); frag != "" {
		return reject("confirmation failed: critical system path fragment %q in %q", frag, in.Dir)
	}

	return nil
}

// CheckSiblingGames reports whether the target's steamapps/common parent
// contains at least one other game directory. A lone game is unusual but
// not blocking; the returned warning is empty when siblings exist.
func CheckSiblingGames(dir string) string {
	parent := filepath.Dir(dir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return fmt.Sprintf("cannot inspect library siblings of %q: %v", dir, err)
	}

	base := filepath.Base(dir)
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != base {
			return ""
		}
	}
	return fmt.Sprintf("no sibling game directories found next to %q", dir)
}

// hasSegment reports whether any path segment equals name, case-insensitive.
func hasSegment(path, name string) bool {
	for _, seg := range splitSegments(path) {
		if strings.EqualFold(seg, name) {
			return true
		}
	}
	return false
}

// countSegments returns the number of non-empty path components.
func countSegments(path string) int {
	return len(splitSegments(path))
}

func splitSegments(path string) []string {
	normalized := filepath.ToSlash(filepath.Clean(path))
	var segs []string
	for _, seg := range strings.Split(normalized, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// underAnyBase reports whether path is contained in one of the base
// directories. Bases that do not resolve are skipped.
func underAnyBase(path string, bases []string) bool {
	for _, base := range bases {
		resolvedBase, err := filepath.EvalSymlinks(base)
		if err != nil {
			resolvedBase = filepath.Clean(base)
		}
		rel, err := filepath.Rel(resolvedBase, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// matchCriticalFragment returns the first critical fragment found in the
// path, or empty. Single-word fragments match whole segments; multi-part
// fragments match as substrings of the normalized path.
func matchCriticalFragment(path string) string {
	lower := strings.ToLower(filepath.ToSlash(path))
	segs := splitSegments(lower)
	for _, frag := range criticalFragments {
		if strings.ContainsAny(frag, "/ ") {
			if strings.Contains(lower, frag) {
				return frag
			}
			continue
		}
		for _, seg := range segs {
			if seg == frag {
				return frag
			}
		}
	}
	return ""
}

func isDangerousName(name string, denylist []string) bool {
	for _, dangerous := range denylist {
		if name == dangerous {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
