package cleanup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/accela-project/accela/pkg/accela/types"
)

// logFilePrefix and logFileSuffix frame the removal-log filenames written
// into the cleaned directory.
const (
	logFilePrefix = ".accela_cleanup_log_"
	logFileSuffix = ".json"
)

// RemovalLog is the persisted record of one cleanup run, written as JSON
// inside the cleaned directory for forensic review. The tool never deletes
// these itself; the operator inspects and prunes them manually.
type RemovalLog struct {
	Timestamp  time.Time           `json:"timestamp"`
	InstallDir string              `json:"install_dir"`
	Game       GameData            `json:"game_data"`
	SessionID  string              `json:"session_id"`
	Result     types.CleanupResult `json:"result"`
	Removals   []types.Removal     `json:"removals"`
}

// saveRemovalLog writes the removal log atomically into the cleaned
// directory, named by session id (or timestamp when absent).
func (c *Cleanup) saveRemovalLog(req Request, result *types.CleanupResult) error {
	now := time.Now()
	entry := RemovalLog{
		Timestamp:  now,
		InstallDir: req.InstallDir,
		Game:       req.Game,
		SessionID:  req.SessionID,
		Result:     *result,
		Removals:   result.Removals,
	}

	token := req.SessionID
	if token == "" {
		token = timestampToken(now)
	}
	path := filepath.Join(req.InstallDir, logFilePrefix+token+logFileSuffix)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling removal log: %w", err)
	}

	// Write atomically using a temp file and rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing removal log: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming removal log: %w", err)
	}

	return nil
}

// RemovalLogs reads back all removal logs found in installDir, sorted
// newest-first by timestamp. Unparsable files are skipped.
func RemovalLogs(installDir string) ([]RemovalLog, error) {
	entries, err := os.ReadDir(installDir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", installDir, err)
	}

	logs := make([]RemovalLog, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, logFileSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(installDir, name))
		if err != nil {
			continue
		}
		var log RemovalLog
		if err := json.Unmarshal(data, &log); err != nil {
			continue
		}
		logs = append(logs, log)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})

	return logs, nil
}
