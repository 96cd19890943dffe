package cleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accela-project/accela/pkg/accela/classify"
	"github.com/accela-project/accela/pkg/accela/config"
	"github.com/accela-project/accela/pkg/accela/types"
)

// newInstallDir builds a library tree with a sibling game and returns the
// config (allowing the library base) and the install directory populated
// with the given files.
func newInstallDir(t *testing.T, game string, files map[string]string) (*config.Config, string) {
	t.Helper()

	base := filepath.Join(t.TempDir(), "steam")
	installDir := filepath.Join(base, "steamapps", "common", game)
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "steamapps", "common", "OtherGame"), 0o755))

	for name, content := range files {
		path := filepath.Join(installDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return &config.Config{
		AllowedBases: []string{base},
		MarkerDir:    config.DefaultMarkerDir,
	}, installDir
}

func request(installDir string) Request {
	return Request{
		InstallDir: installDir,
		Game:       GameData{AppID: "123", GameName: "foo"},
		SessionID:  "session-abc123",
	}
}

// failingExecutor delegates to the filesystem but fails removal of one path.
type failingExecutor struct {
	failPath string
}

func (e *failingExecutor) RemoveFile(path string) error {
	if path == e.failPath {
		return fmt.Errorf("%s: input/output error", path)
	}
	return os.Remove(path)
}

func (e *failingExecutor) RemoveTree(path string) error {
	if path == e.failPath {
		return fmt.Errorf("%s: input/output error", path)
	}
	return os.RemoveAll(path)
}

func TestRun_WipesEverything(t *testing.T) {
	// The wipe is directory-gated, not classifier-gated: real game assets
	// go too, even though the classifier would keep them.
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"save.dat":  "data",
		"game.exe":  "binary",
		"patch.tmp": "partial",
	})

	classifier := classify.New()
	assert.False(t, classifier.IsPartial("save.dat", ""))
	assert.False(t, classifier.IsPartial("game.exe", ""))
	assert.True(t, classifier.IsPartial("patch.tmp", ""))

	result := New(cfg).Run(context.Background(), request(installDir))
	require.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.FilesRemoved)

	for _, name := range []string{"save.dat", "game.exe", "patch.tmp"} {
		assert.NoFileExists(t, filepath.Join(installDir, name))
	}
}

func TestRun_RemovesDirectoriesRecursively(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"bin/game.exe":                "binary",
		"bin/data/level1.pak":         "level",
		".DepotDownloader/manifest_1": "meta",
		"readme.txt":                  "hi",
	})

	result := New(cfg).Run(context.Background(), request(installDir))
	require.True(t, result.Success)
	assert.Equal(t, 1, result.FilesRemoved)
	assert.Equal(t, 2, result.DirsRemoved)

	entries, err := os.ReadDir(installDir)
	require.NoError(t, err)
	// Only the removal log remains.
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), logFilePrefix))
}

func TestRun_EmptySessionRejected(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{"game.exe": "binary"})

	req := request(installDir)
	req.SessionID = ""

	result := New(cfg).Run(context.Background(), req)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "session")

	// Zero mutation.
	assert.FileExists(t, filepath.Join(installDir, "game.exe"))
	assert.Empty(t, result.Removals)
}

func TestRun_FailClosedNoMutation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"wrong game name", func(r *Request) { r.Game.GameName = "unrelated" }},
		{"missing app id", func(r *Request) { r.Game.AppID = "" }},
		{"short session id", func(r *Request) { r.SessionID = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, installDir := newInstallDir(t, "Foo", map[string]string{"game.exe": "binary"})

			req := request(installDir)
			tt.mutate(&req)

			c := New(cfg)
			result := c.Run(context.Background(), req)
			assert.False(t, result.Success)
			assert.Equal(t, StateRejected, c.State())
			assert.FileExists(t, filepath.Join(installDir, "game.exe"))
		})
	}
}

func TestRun_PerItemFailureContinues(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"bad.dat":   "bad",
		"good.dat":  "good",
		"sub/x.pak": "xx",
	})

	c := New(cfg)
	c.exec = &failingExecutor{failPath: filepath.Join(installDir, "bad.dat")}

	result := c.Run(context.Background(), request(installDir))
	require.True(t, result.Success)

	// The failing item is reported and everything after it is still removed.
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "bad.dat")
	assert.FileExists(t, filepath.Join(installDir, "bad.dat"))
	assert.NoFileExists(t, filepath.Join(installDir, "good.dat"))
	assert.NoDirExists(t, filepath.Join(installDir, "sub"))
	assert.Equal(t, 1, result.FilesRemoved)
	assert.Equal(t, 1, result.DirsRemoved)

	// The residue trips the post-wipe emptiness check.
	var reported bool
	for _, msg := range result.Errors {
		if strings.Contains(msg, "not empty") {
			reported = true
		}
	}
	assert.True(t, reported, "expected a directory-not-empty error")
}

func TestRun_PartialOnly(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"game.exe":                 "binary",
		"save.dat":                 "data",
		"patch.tmp":                "partial",
		"depot/manifest_881.depot": "meta",
		"depot/level1.pak":         "level",
		"state_session-abc123.bin": "session",
	})

	req := request(installDir)
	req.PartialOnly = true

	result := New(cfg).Run(context.Background(), req)
	require.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 3, result.FilesRemoved)
	assert.Equal(t, 0, result.DirsRemoved)

	// Partial artifacts gone, real assets kept.
	assert.NoFileExists(t, filepath.Join(installDir, "patch.tmp"))
	assert.NoFileExists(t, filepath.Join(installDir, "depot", "manifest_881.depot"))
	assert.NoFileExists(t, filepath.Join(installDir, "state_session-abc123.bin"))
	assert.FileExists(t, filepath.Join(installDir, "game.exe"))
	assert.FileExists(t, filepath.Join(installDir, "save.dat"))
	assert.FileExists(t, filepath.Join(installDir, "depot", "level1.pak"))

	for _, rem := range result.Removals {
		assert.Equal(t, "partial_file", rem.Reason)
	}

	logs, err := RemovalLogs(installDir)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestRun_PartialOnly_SafetyGatesStillApply(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{"patch.tmp": "partial"})

	req := request(installDir)
	req.PartialOnly = true
	req.SessionID = ""

	result := New(cfg).Run(context.Background(), req)
	assert.False(t, result.Success)
	assert.FileExists(t, filepath.Join(installDir, "patch.tmp"))
}

func TestRun_PartialOnly_ResidueWarns(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"other.tmp": "partial",
		"patch.tmp": "partial",
	})

	c := New(cfg)
	c.exec = &failingExecutor{failPath: filepath.Join(installDir, "other.tmp")}

	req := request(installDir)
	req.PartialOnly = true

	result := c.Run(context.Background(), req)
	require.True(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "other.tmp")

	assert.FileExists(t, filepath.Join(installDir, "other.tmp"))
	assert.NoFileExists(t, filepath.Join(installDir, "patch.tmp"))

	// The post-wipe audit flags the surviving artifact.
	var warned bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "partial files remain") {
			warned = true
		}
	}
	assert.True(t, warned, "expected a remaining-partial-files warning")
}

func TestRun_DryRunLeavesFilesystemUntouched(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"game.exe":     "binary",
		"bin/data.pak": "data",
	})

	req := request(installDir)
	req.DryRun = true

	result := New(cfg).Run(context.Background(), req)
	require.True(t, result.Success)
	assert.True(t, result.DryRun)
	assert.NotEmpty(t, result.Removals)

	// Everything still present, no removal log written.
	assert.FileExists(t, filepath.Join(installDir, "game.exe"))
	assert.FileExists(t, filepath.Join(installDir, "bin", "data.pak"))

	entries, err := os.ReadDir(installDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRun_RemovalsStayInsideTarget(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"a.txt":       "a",
		"sub/b.txt":   "b",
		"sub/c/d.bin": "d",
	})

	result := New(cfg).Run(context.Background(), request(installDir))
	require.True(t, result.Success)

	prefix := installDir + string(filepath.Separator)
	for _, rem := range result.Removals {
		assert.True(t, strings.HasPrefix(rem.Path, prefix),
			"removal %q escapes target %q", rem.Path, installDir)
	}
}

func TestRun_AuditSizesSumToSpaceFreed(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{
		"game.exe":   strings.Repeat("x", 100),
		"sub/a.pak":  strings.Repeat("y", 250),
		"sub/b.pak":  strings.Repeat("z", 50),
		"loose.file": "1234",
	})

	result := New(cfg).Run(context.Background(), request(installDir))
	require.True(t, result.Success)

	var sum int64
	for _, rem := range result.Removals {
		sum += rem.Size
	}
	assert.Equal(t, result.SpaceFreedBytes, sum)
	assert.Equal(t, int64(100+250+50+4), result.SpaceFreedBytes)
}

func TestRun_PersistsRemovalLog(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{"game.exe": "binary"})

	result := New(cfg).Run(context.Background(), request(installDir))
	require.True(t, result.Success)

	logs, err := RemovalLogs(installDir)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "session-abc123", logs[0].SessionID)
	assert.Equal(t, "123", logs[0].Game.AppID)
	assert.Equal(t, installDir, logs[0].InstallDir)
	require.Len(t, logs[0].Removals, 1)
	assert.Equal(t, types.RemovalFile, logs[0].Removals[0].Type)
}

func TestRun_CancellationStopsEnumerating(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{"game.exe": "binary"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(cfg).Run(ctx, request(installDir))
	// The run still reaches DONE; cancellation is recorded as a warning and
	// no further items are touched.
	assert.True(t, result.Success)
	assert.Empty(t, result.Removals)
	assert.NotEmpty(t, result.Warnings)
	assert.FileExists(t, filepath.Join(installDir, "game.exe"))
}

func TestRemovalLogs_SortedNewestFirst(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{"one.tmp": "1"})

	req := request(installDir)
	req.SessionID = "session-first"
	require.True(t, New(cfg).Run(context.Background(), req).Success)

	require.NoError(t, os.WriteFile(filepath.Join(installDir, "two.tmp"), []byte("2"), 0o644))
	req.SessionID = "session-second"
	require.True(t, New(cfg).Run(context.Background(), req).Success)

	logs, err := RemovalLogs(installDir)
	require.NoError(t, err)
	// The second run wiped the first run's log file before writing its own.
	require.Len(t, logs, 1)
	assert.Equal(t, "session-second", logs[0].SessionID)
}

func TestRemovalLogs_MissingDirectory(t *testing.T) {
	_, err := RemovalLogs(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestState_Transitions(t *testing.T) {
	cfg, installDir := newInstallDir(t, "Foo", map[string]string{"game.exe": "binary"})

	c := New(cfg)
	assert.Equal(t, StateIdle, c.State())

	result := c.Run(context.Background(), request(installDir))
	require.True(t, result.Success)
	assert.Equal(t, StateDone, c.State())
}
