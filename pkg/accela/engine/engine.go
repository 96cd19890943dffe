// Package engine deletes a single installed game: its manifest, its install
// directory, and optionally its save data. Every destructive step is gated
// by the safety validators and captured independently in an itemized result;
// failure of one step never prevents attempting the rest.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/accela-project/accela/pkg/accela/config"
	"github.com/accela-project/accela/pkg/accela/logging"
	"github.com/accela-project/accela/pkg/accela/safety"
	"github.com/accela-project/accela/pkg/accela/scanner"
	"github.com/accela-project/accela/pkg/accela/steam"
	"github.com/accela-project/accela/pkg/accela/types"
)

// Engine performs validated single-game deletions.
type Engine struct {
	cfg *config.Config
}

// New creates an Engine.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Delete removes a game's manifest and install directory, and its
// compatdata save directory when deleteSaveData is set. The record is
// re-validated first; a safety rejection aborts before any mutation.
// Filesystem mutation is irreversible: there is no undo.
//
// The returned message enumerates what was removed and what failed.
func (e *Engine) Delete(ctx context.Context, rec types.GameRecord, deleteSaveData bool) (*types.CleanupResult, string) {
	log := logging.Get("engine")
	result := &types.CleanupResult{}

	log.Info("starting deletion", "app_id", rec.AppID, "name", rec.DisplayName,
		"delete_save_data", deleteSaveData)

	if err := rec.Validate(); err != nil {
		result.AddError("%v", err)
		log.Error("deletion refused", "error", err)
		return result, err.Error()
	}

	if err := safety.ValidateGameDeletion(safety.GameDeletionInput{
		AppID:        rec.AppID,
		InstallDir:   rec.InstallDir,
		ManifestPath: rec.ManifestPath,
		GamePath:     rec.GamePath,
		LibraryPath:  rec.LibraryPath,
	}, e.cfg.MarkerDir); err != nil {
		result.AddError("%v", err)
		log.Error("deletion refused", "error", err)
		return result, err.Error()
	}

	var removed []string

	// Manifest file. Already-absent is not an error.
	if info, err := os.Stat(rec.ManifestPath); err == nil && !info.IsDir() {
		size := info.Size()
		if err := os.Remove(rec.ManifestPath); err != nil {
			result.AddError("failed to delete manifest %s: %v", rec.ManifestPath, err)
			log.Error("manifest deletion failed", "path", rec.ManifestPath, "error", err)
		} else {
			result.AddRemoval(types.Removal{
				Type: types.RemovalFile, Path: rec.ManifestPath, Size: size, Reason: "manifest",
			})
			removed = append(removed, fmt.Sprintf("manifest %s", rec.ManifestPath))
			log.Info("deleted manifest", "path", rec.ManifestPath)
		}
	} else {
		log.Info("manifest already absent", "path", rec.ManifestPath)
	}

	// Game install directory.
	if info, err := os.Stat(rec.GamePath); err == nil && info.IsDir() {
		size := scanner.DirSize(ctx, rec.GamePath)
		if err := os.RemoveAll(rec.GamePath); err != nil {
			result.AddError("failed to delete game directory %s: %v", rec.GamePath, err)
			log.Error("game directory deletion failed", "path", rec.GamePath, "error", err)
		} else {
			result.AddRemoval(types.Removal{
				Type: types.RemovalDirectory, Path: rec.GamePath, Size: size, Reason: "game directory",
			})
			removed = append(removed, fmt.Sprintf("game directory %s", rec.GamePath))
			log.Info("deleted game directory", "path", rec.GamePath)
		}
	} else {
		log.Info("game directory already absent", "path", rec.GamePath)
	}

	if deleteSaveData {
		e.deleteSaveData(ctx, rec, result, &removed)
	} else {
		log.Info("save data preserved", "app_id", rec.AppID)
	}

	result.Success = len(result.Errors) == 0
	message := buildMessage(rec, result, removed, deleteSaveData)
	if result.Success {
		log.Info("deletion complete", "app_id", rec.AppID, "summary", result.Summary())
	} else {
		log.Error("deletion finished with errors", "app_id", rec.AppID, "errors", len(result.Errors))
	}
	return result, message
}

// deleteSaveData removes the compatdata directory after the save-data
// checks pass. The structural soft check records a warning but does not
// block.
func (e *Engine) deleteSaveData(ctx context.Context, rec types.GameRecord, result *types.CleanupResult, removed *[]string) {
	log := logging.Get("engine")

	compatdata := steam.CompatdataPath(rec.LibraryPath, rec.AppID)
	info, err := os.Stat(compatdata)
	if err != nil || !info.IsDir() {
		log.Info("compatdata not found, skipping", "path", compatdata)
		return
	}

	warning, err := safety.ValidateCompatdataDeletion(compatdata, rec.AppID)
	if err != nil {
		result.AddError("%v", err)
		log.Error("compatdata deletion refused", "path", compatdata, "error", err)
		return
	}
	if warning != "" {
		result.AddWarning("%s", warning)
		log.Warn("compatdata structural check", "warning", warning)
	}

	size := scanner.DirSize(ctx, compatdata)
	if err := os.RemoveAll(compatdata); err != nil {
		result.AddError("failed to delete compatdata %s: %v", compatdata, err)
		log.Error("compatdata deletion failed", "path", compatdata, "error", err)
		return
	}

	result.AddRemoval(types.Removal{
		Type: types.RemovalDirectory, Path: compatdata, Size: size, Reason: "compatdata",
	})
	*removed = append(*removed, fmt.Sprintf("compatdata %s", compatdata))
	log.Info("deleted compatdata", "path", compatdata)
}

// buildMessage summarizes the deletion for the operator.
func buildMessage(rec types.GameRecord, result *types.CleanupResult, removed []string, deleteSaveData bool) string {
	if len(result.Errors) > 0 {
		return fmt.Sprintf("partial deletion of %s: %s",
			rec.DisplayName, strings.Join(result.Errors, "; "))
	}

	note := " (save data preserved)"
	if deleteSaveData {
		note = " (including save data)"
	}
	if len(removed) == 0 {
		return fmt.Sprintf("nothing to remove for %s%s", rec.DisplayName, note)
	}
	return fmt.Sprintf("successfully deleted %s%s: %s",
		rec.DisplayName, note, strings.Join(removed, "; "))
}
