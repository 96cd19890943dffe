// Package cleanup wipes the install directory of a cancelled or interrupted
// download. Unlike the single-game deletion engine it is aggressive by
// contract: once the layered gates prove the directory is this specific
// game's install directory, everything inside is removed without per-file
// classification. The gates are the only thing standing between the wipe and
// the filesystem, so they are checked twice, independently.
//
// A partial-only mode removes just the classifier-matched download artifacts
// instead, behind the same gates, for installs worth keeping.
package cleanup

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/accela-project/accela/pkg/accela/classify"
	"github.com/accela-project/accela/pkg/accela/config"
	"github.com/accela-project/accela/pkg/accela/logging"
	"github.com/accela-project/accela/pkg/accela/safety"
	"github.com/accela-project/accela/pkg/accela/scanner"
	"github.com/accela-project/accela/pkg/accela/types"
)

// State is the cleanup state machine position.
type State string

// Cleanup states. A run moves IDLE → VALIDATING → CONFIRMING → WIPING →
// DONE, or to REJECTED from either checking state.
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateConfirming State = "confirming"
	StateWiping     State = "wiping"
	StateDone       State = "done"
	StateRejected   State = "rejected"
)

// GameData identifies the game whose download was cancelled.
type GameData struct {
	AppID    string `json:"app_id"`
	GameName string `json:"game_name"`
}

// Request describes one cleanup run.
type Request struct {
	// InstallDir is the directory to wipe.
	InstallDir string

	// Game identifies the game being cancelled.
	Game GameData

	// SessionID is the caller-supplied token proving an active cancel
	// session. The wipe never runs standalone.
	SessionID string

	// PartialOnly removes only partial/temporary download artifacts,
	// leaving real game assets in place. The same safety gates apply.
	PartialOnly bool

	// DryRun logs intended mutations without performing them.
	DryRun bool
}

// Cleanup wipes a validated install directory.
type Cleanup struct {
	cfg        *config.Config
	classifier *classify.Classifier
	state      State

	// exec overrides the executor when non-nil; tests inject failures here.
	exec executor
}

// New creates a Cleanup.
func New(cfg *config.Config) *Cleanup {
	return &Cleanup{cfg: cfg, classifier: classify.New(), state: StateIdle}
}

// State returns the current state machine position.
func (c *Cleanup) State() State {
	return c.state
}

// Run executes the cleanup. Any hard gate failure rejects the run with zero
// filesystem mutation. Once wiping begins, cancellation stops enumerating
// further items but already-removed items stay removed; there is no
// rollback.
func (c *Cleanup) Run(ctx context.Context, req Request) *types.CleanupResult {
	log := logging.Get("cleanup")
	result := &types.CleanupResult{DryRun: req.DryRun}

	input := safety.WipeTargetInput{
		Dir:          req.InstallDir,
		GameName:     req.Game.GameName,
		AppID:        req.Game.AppID,
		SessionID:    req.SessionID,
		AllowedBases: c.cfg.AllowedBases,
	}

	c.state = StateValidating
	if err := safety.ValidateWipeTarget(input); err != nil {
		c.state = StateRejected
		result.AddError("%v", err)
		log.Error("cleanup rejected", "dir", req.InstallDir, "error", err)
		return result
	}
	if warning := safety.CheckSiblingGames(req.InstallDir); warning != "" {
		result.AddWarning("%s", warning)
		log.Warn("library sanity check", "warning", warning)
	}

	c.state = StateConfirming
	if err := safety.ConfirmWipeTarget(input); err != nil {
		c.state = StateRejected
		result.AddError("%v", err)
		log.Error("cleanup rejected at confirmation", "dir", req.InstallDir, "error", err)
		return result
	}

	log.Warn("starting complete cleanup", "dir", req.InstallDir,
		"game", req.Game.GameName, "app_id", req.Game.AppID,
		"session", req.SessionID, "dry_run", req.DryRun)

	c.state = StateWiping
	if req.PartialOnly {
		c.wipePartials(ctx, req, result)
	} else {
		c.wipe(ctx, req, result)
	}

	c.state = StateDone
	result.Success = true

	if !req.DryRun {
		c.auditPartials(req, result)
		if err := c.saveRemovalLog(req, result); err != nil {
			result.AddWarning("failed to save removal log: %v", err)
			log.Warn("removal log not saved", "error", err)
		}
	}

	log.Warn("cleanup finished", "dir", req.InstallDir, "summary", result.Summary())
	return result
}

// wipe enumerates every direct child of the target directory and removes it,
// recording removals in listing order. Per-item failures are collected and
// the wipe continues with the remaining items.
func (c *Cleanup) wipe(ctx context.Context, req Request, result *types.CleanupResult) {
	log := logging.Get("cleanup")
	exec := c.executorFor(req, log)

	entries, err := os.ReadDir(req.InstallDir)
	if err != nil {
		result.AddError("cannot list install directory %s: %v", req.InstallDir, err)
		return
	}

	log.Warn("items to delete", "count", len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.AddWarning("cleanup cancelled with %d items remaining", len(entries)-len(result.Removals))
			return
		}

		path := filepath.Join(req.InstallDir, entry.Name())

		if entry.IsDir() {
			size := scanner.DirSize(ctx, path)
			if err := exec.RemoveTree(path); err != nil {
				result.AddError("failed to delete directory %s: %v", path, err)
				continue
			}
			result.AddRemoval(types.Removal{
				Type: types.RemovalDirectory, Path: path, Size: size, Reason: "complete_cleanup",
			})
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		if err := exec.RemoveFile(path); err != nil {
			result.AddError("failed to delete file %s: %v", path, err)
			continue
		}
		result.AddRemoval(types.Removal{
			Type: types.RemovalFile, Path: path, Size: size, Reason: "complete_cleanup",
		})
	}

	if !req.DryRun {
		c.verifyEmpty(req.InstallDir, result)
	}
}

// wipePartials walks the whole subtree and removes only the files the
// classifier marks as partial/temporary download artifacts. Real game assets
// and directories stay. Used when a cancelled download should be cleaned
// without discarding an otherwise intact install.
func (c *Cleanup) wipePartials(ctx context.Context, req Request, result *types.CleanupResult) {
	log := logging.Get("cleanup")
	exec := c.executorFor(req, log)

	walkErr := filepath.WalkDir(req.InstallDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			result.AddError("cannot inspect %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !c.classifier.IsPartial(d.Name(), req.SessionID) {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		if err := exec.RemoveFile(path); err != nil {
			result.AddError("failed to delete partial file %s: %v", path, err)
			return nil
		}
		result.AddRemoval(types.Removal{
			Type: types.RemovalFile, Path: path, Size: size, Reason: "partial_file",
		})
		return nil
	})
	if walkErr != nil {
		result.AddWarning("partial cleanup stopped early: %v", walkErr)
	}

	log.Warn("partial cleanup finished", "removed", result.FilesRemoved)
}

// auditPartials re-walks whatever survived the wipe and warns when partial
// download artifacts remain. Residue means some removal failed; the warning
// surfaces it in the result and the persisted log.
func (c *Cleanup) auditPartials(req Request, result *types.CleanupResult) {
	remaining := 0
	_ = filepath.WalkDir(req.InstallDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if c.classifier.IsPartial(d.Name(), req.SessionID) {
			remaining++
		}
		return nil
	})
	if remaining > 0 {
		result.AddWarning("%d partial files remain after cleanup", remaining)
	}
}

// executorFor picks the executor for a run: an injected one if set,
// otherwise real or dry-run based on the request.
func (c *Cleanup) executorFor(req Request, log *log.Logger) executor {
	if c.exec != nil {
		return c.exec
	}
	if req.DryRun {
		return &dryRunExecutor{log: log}
	}
	return &realExecutor{log: log}
}

// verifyEmpty checks the post-wipe condition that the directory holds no
// remaining items. A violation is recorded as an error; already-completed
// deletions are not undone.
func (c *Cleanup) verifyEmpty(dir string, result *types.CleanupResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.AddError("cannot verify directory after cleanup: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	remaining := make([]string, 0, len(entries))
	for _, entry := range entries {
		remaining = append(remaining, entry.Name())
	}
	result.AddError("directory not empty after cleanup, %d items remaining: %v",
		len(remaining), remaining)
}

// timestampToken formats a fallback token for log filenames when no session
// id is available.
func timestampToken(now time.Time) string {
	return now.Format("20060102_150405")
}
