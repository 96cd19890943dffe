// Package scanner discovers games installed by this tool across the
// configured Steam libraries. A game qualifies only when its install
// directory carries the install marker; vanilla Steam installs are always
// excluded.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/accela-project/accela/pkg/accela/config"
	"github.com/accela-project/accela/pkg/accela/logging"
	"github.com/accela-project/accela/pkg/accela/sizecache"
	"github.com/accela-project/accela/pkg/accela/steam"
	"github.com/accela-project/accela/pkg/accela/types"
)

// Scanner enumerates Steam libraries and produces game records.
type Scanner struct {
	cfg   *config.Config
	cache *sizecache.Store
}

// New creates a Scanner. cache may be nil to disable size caching.
func New(cfg *config.Config, cache *sizecache.Store) *Scanner {
	return &Scanner{cfg: cfg, cache: cache}
}

// Scan enumerates all configured library roots and returns a record for
// every game installed by this tool. Malformed manifests are skipped with a
// warning; per-file I/O errors during size computation contribute 0.
// Records are returned sorted by app id for deterministic output.
func (s *Scanner) Scan(ctx context.Context) ([]types.GameRecord, error) {
	log := logging.Get("scanner")

	libraries := s.cfg.LibraryRoots()
	records := make([]types.GameRecord, 0)

	for _, library := range libraries {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		steamapps := filepath.Join(library, "steamapps")
		if info, err := os.Stat(steamapps); err != nil || !info.IsDir() {
			continue
		}

		manifests, err := steam.FindManifests(steamapps)
		if err != nil {
			log.Warn("cannot list manifests", "library", library, "error", err)
			continue
		}

		for _, manifestPath := range manifests {
			if err := ctx.Err(); err != nil {
				return records, err
			}

			rec, ok := s.scanManifest(ctx, manifestPath, library)
			if ok {
				records = append(records, rec)
			}
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].AppID < records[j].AppID
	})

	log.Info("scan complete", "games", len(records), "libraries", len(libraries))
	return records, nil
}

// scanManifest parses one manifest and builds a record when the game was
// installed by this tool.
func (s *Scanner) scanManifest(ctx context.Context, manifestPath, library string) (types.GameRecord, bool) {
	log := logging.Get("scanner")

	manifest, err := steam.ParseManifest(manifestPath)
	if err != nil {
		log.Warn("skipping manifest", "path", manifestPath, "error", err)
		return types.GameRecord{}, false
	}

	gamePath := steam.GamePath(library, manifest.InstallDir)
	if !s.isToolInstall(gamePath) {
		return types.GameRecord{}, false
	}

	return types.GameRecord{
		AppID:        manifest.AppID,
		Name:         manifest.Name,
		DisplayName:  types.DisplayNameFor(manifest.Name, manifest.InstallDir),
		InstallDir:   manifest.InstallDir,
		ManifestPath: manifestPath,
		GamePath:     gamePath,
		LibraryPath:  library,
		SizeBytes:    s.gameSize(ctx, gamePath, manifestPath),
	}, true
}

// isToolInstall reports whether the install marker directory is present.
func (s *Scanner) isToolInstall(gamePath string) bool {
	marker := filepath.Join(gamePath, s.cfg.MarkerDir)
	info, err := os.Stat(marker)
	return err == nil && info.IsDir()
}

// gameSize returns the recursive size of gamePath, consulting the size
// cache first. Cache errors degrade to a fresh walk.
func (s *Scanner) gameSize(ctx context.Context, gamePath, manifestPath string) int64 {
	mtime := int64(0)
	if info, err := os.Stat(manifestPath); err == nil {
		mtime = info.ModTime().UnixNano()
	}

	if s.cache != nil {
		if entry, err := s.cache.Get(gamePath); err == nil && entry.ManifestMtime == mtime {
			return entry.SizeBytes
		}
	}

	size := DirSize(ctx, gamePath)

	if s.cache != nil {
		if err := s.cache.Put(gamePath, &sizecache.Entry{SizeBytes: size, ManifestMtime: mtime}); err != nil {
			logging.Get("scanner").Warn("size cache update failed", "path", gamePath, "error", err)
		}
	}

	return size
}

// DirSize computes the total size of all regular files under path.
// Best-effort: unreadable entries contribute 0. Cancellation is checked
// between entries; a cancelled walk returns the partial sum.
func DirSize(ctx context.Context, path string) int64 {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return 0
	}

	var total atomic.Int64
	conf := fastwalk.Config{
		Follow: false, // Never follow symlinks out of the subtree.
	}

	err := fastwalk.Walk(&conf, path, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil // Unreadable entries contribute 0.
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total.Add(info.Size())
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Get("scanner").Debug("size walk aborted", "path", path, "error", err)
	}

	return total.Load()
}
