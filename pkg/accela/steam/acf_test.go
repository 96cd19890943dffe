package steam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleACF = `"AppState"
{
	"appid"		"440"
	"Universe"		"1"
	"name"		"Team Fortress 2"
	"StateFlags"		"4"
	"installdir"		"Team Fortress 2"
	"SizeOnDisk"		"26843545600"
}
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appmanifest_440.acf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseManifest(t *testing.T) {
	path := writeManifest(t, sampleACF)

	m, err := ParseManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "440", m.AppID)
	assert.Equal(t, "Team Fortress 2", m.Name)
	assert.Equal(t, "Team Fortress 2", m.InstallDir)
	assert.Equal(t, path, m.Path)
}

func TestParseManifest_MissingKey(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no appid", `"AppState" { "name" "Foo" "installdir" "Foo" }`},
		{"no name", `"AppState" { "appid" "440" "installdir" "Foo" }`},
		{"no installdir", `"AppState" { "appid" "440" "name" "Foo" }`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(writeManifest(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestParseManifest_NonNumericAppID(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `"appid" "abc" "name" "Foo" "installdir" "Foo"`))
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestParseManifest_FileMissing(t *testing.T) {
	_, err := ParseManifest(filepath.Join(t.TempDir(), "gone.acf"))
	assert.Error(t, err)
}

func TestFindManifests(t *testing.T) {
	steamapps := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "appmanifest_1.acf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "appmanifest_2.acf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "libraryfolders.vdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "appmanifest_3.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(steamapps, "appmanifest_4.acf"), 0o755))

	manifests, err := FindManifests(steamapps)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(steamapps, "appmanifest_1.acf"),
		filepath.Join(steamapps, "appmanifest_2.acf"),
	}, manifests)
}

func TestFindManifests_MissingDir(t *testing.T) {
	_, err := FindManifests(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestManifestName(t *testing.T) {
	assert.Equal(t, "appmanifest_440.acf", ManifestName("440"))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/lib", "steamapps", "common", "Foo"), GamePath("/lib", "Foo"))
	assert.Equal(t, filepath.Join("/lib", "steamapps", "compatdata", "440"), CompatdataPath("/lib", "440"))
}
