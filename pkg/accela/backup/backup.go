// Package backup creates, restores and deletes ZIP snapshots of the Steam
// stats directory (appcache/stats). It is a collaborator of the deletion
// core, not part of it: nothing here consults the safety validators beyond
// its own containment checks.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/accela-project/accela/pkg/accela/config"
	"github.com/accela-project/accela/pkg/accela/logging"
)

// ErrStatsNotFound indicates no Steam stats directory exists under any
// configured base.
var ErrStatsNotFound = errors.New("steam stats directory not found")

// ErrOutsideBackupDir indicates a restore/delete target does not live inside
// the configured backup directory.
var ErrOutsideBackupDir = errors.New("path outside backup directory")

// Info describes one backup archive.
type Info struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	FileCount int       `json:"file_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Archiver manages stats backups under the configured backup directory.
type Archiver struct {
	cfg *config.Config
}

// New creates an Archiver.
func New(cfg *config.Config) *Archiver {
	return &Archiver{cfg: cfg}
}

// StatsPath locates the Steam appcache/stats directory under the configured
// bases.
func (a *Archiver) StatsPath() (string, error) {
	for _, base := range a.cfg.AllowedBases {
		stats := filepath.Join(base, "appcache", "stats")
		if info, err := os.Stat(stats); err == nil && info.IsDir() {
			return stats, nil
		}
	}
	return "", ErrStatsNotFound
}

// Create zips every .bin file in the stats directory into a new archive and
// returns its path. name is optional; empty generates a timestamped one.
func (a *Archiver) Create(name string) (string, error) {
	log := logging.Get("backup")

	stats, err := a.StatsPath()
	if err != nil {
		return "", err
	}

	if err := config.EnsureDir(a.cfg.BackupDir); err != nil {
		return "", err
	}

	if name == "" {
		name = "stats_backup_" + time.Now().Format("20060102_150405")
	}
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}
	archivePath := filepath.Join(a.cfg.BackupDir, name)

	files, err := statsFiles(stats)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no stats files found in %s", stats)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := addToZip(zw, file); err != nil {
			zw.Close()
			_ = os.Remove(archivePath)
			return "", fmt.Errorf("archiving %s: %w", file, err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("finalizing archive: %w", err)
	}

	log.Info("backup created", "path", archivePath, "files", len(files))
	return archivePath, nil
}

// List returns all backups in the backup directory, newest first.
func (a *Archiver) List() ([]Info, error) {
	entries, err := os.ReadDir(a.cfg.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	backups := make([]Info, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		path := filepath.Join(a.cfg.BackupDir, entry.Name())
		info, err := a.describe(path)
		if err != nil {
			continue
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Restore extracts an archive's files back into the stats directory.
// When backupFirst is set, a safety backup of the current state is created
// before anything is overwritten.
func (a *Archiver) Restore(archivePath string, backupFirst bool) error {
	log := logging.Get("backup")

	if err := a.containedInBackupDir(archivePath); err != nil {
		return err
	}

	stats, err := a.StatsPath()
	if err != nil {
		return err
	}

	if backupFirst {
		if _, err := a.Create("pre_restore_" + time.Now().Format("20060102_150405")); err != nil {
			return fmt.Errorf("pre-restore backup failed: %w", err)
		}
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		// Flat archive: reject any entry that would escape the stats dir.
		name := filepath.Base(file.Name)
		if name != file.Name || name == "." || name == ".." {
			return fmt.Errorf("unexpected archive entry %q", file.Name)
		}
		if err := extractFile(file, filepath.Join(stats, name)); err != nil {
			return fmt.Errorf("restoring %s: %w", name, err)
		}
	}

	log.Info("backup restored", "archive", archivePath, "files", len(zr.File))
	return nil
}

// Delete removes a backup archive. The path must live inside the backup
// directory and end with .zip.
func (a *Archiver) Delete(archivePath string) error {
	if err := a.containedInBackupDir(archivePath); err != nil {
		return err
	}
	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("deleting backup: %w", err)
	}
	logging.Get("backup").Info("backup deleted", "path", archivePath)
	return nil
}

// containedInBackupDir rejects archive paths outside the backup directory.
func (a *Archiver) containedInBackupDir(path string) error {
	if !strings.HasSuffix(path, ".zip") {
		return fmt.Errorf("%w: %s is not a .zip archive", ErrOutsideBackupDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	dir, err := filepath.Abs(a.cfg.BackupDir)
	if err != nil {
		return fmt.Errorf("resolving backup directory: %w", err)
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideBackupDir, path)
	}
	return nil
}

// describe builds the Info for one archive.
func (a *Archiver) describe(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return Info{}, err
	}
	defer zr.Close()

	return Info{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: stat.Size(),
		FileCount: len(zr.File),
		CreatedAt: stat.ModTime(),
	}, nil
}

// statsFiles lists the .bin stat files directly inside the stats directory.
func statsFiles(stats string) ([]string, error) {
	entries, err := os.ReadDir(stats)
	if err != nil {
		return nil, fmt.Errorf("reading stats directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".bin") {
			files = append(files, filepath.Join(stats, entry.Name()))
		}
	}
	return files, nil
}

// addToZip writes one file into the archive under its base name.
func addToZip(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// extractFile writes one archive entry to dst.
func extractFile(file *zip.File, dst string) error {
	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
