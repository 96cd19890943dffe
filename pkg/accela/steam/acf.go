// Package steam parses Valve ACF app manifests and locates them inside
// Steam library directories. Only the keys the cleanup core needs are
// extracted; everything else in the manifest is ignored.
package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidManifest indicates an ACF file is missing one of the required
// keys (appid, name, installdir). Callers skip such files with a warning.
var ErrInvalidManifest = errors.New("invalid ACF manifest")

// ACF manifests are a brace-delimited key-value text format with one
// `"key" "value"` pair per line. Pattern extraction of the three keys we
// need is simpler and more tolerant than a full VDF parser.
var (
	appIDPattern      = regexp.MustCompile(`"appid"\s*"(\d+)"`)
	namePattern       = regexp.MustCompile(`"name"\s*"([^"]+)"`)
	installDirPattern = regexp.MustCompile(`"installdir"\s*"([^"]+)"`)
)

// Manifest holds the fields extracted from one appmanifest_*.acf file.
type Manifest struct {
	AppID      string
	Name       string
	InstallDir string
	Path       string
}

// ParseManifest reads an ACF file and extracts the appid, name and
// installdir keys. A manifest missing any required key returns
// ErrInvalidManifest.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	content := string(data)
	appID := appIDPattern.FindStringSubmatch(content)
	name := namePattern.FindStringSubmatch(content)
	installDir := installDirPattern.FindStringSubmatch(content)

	if appID == nil || name == nil || installDir == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidManifest, path)
	}

	return &Manifest{
		AppID:      appID[1],
		Name:       name[1],
		InstallDir: installDir[1],
		Path:       path,
	}, nil
}

// FindManifests lists all appmanifest_*.acf files directly inside a
// steamapps directory. The returned paths are absolute when steamappsDir is.
func FindManifests(steamappsDir string) ([]string, error) {
	entries, err := os.ReadDir(steamappsDir)
	if err != nil {
		return nil, fmt.Errorf("reading steamapps directory %s: %w", steamappsDir, err)
	}

	var manifests []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "appmanifest_") && strings.HasSuffix(name, ".acf") {
			manifests = append(manifests, filepath.Join(steamappsDir, name))
		}
	}
	return manifests, nil
}

// ManifestName returns the expected manifest filename for an app id.
func ManifestName(appID string) string {
	return fmt.Sprintf("appmanifest_%s.acf", appID)
}

// GamePath returns the install directory path for a library root and
// installdir component: <library>/steamapps/common/<installDir>.
func GamePath(libraryPath, installDir string) string {
	return filepath.Join(libraryPath, "steamapps", "common", installDir)
}

// CompatdataPath returns the Proton save-data directory for an app:
// <library>/steamapps/compatdata/<appID>.
func CompatdataPath(libraryPath, appID string) string {
	return filepath.Join(libraryPath, "steamapps", "compatdata", appID)
}
