// Package config loads the application configuration from file, environment
// and defaults. Components receive a *Config at construction; there is no
// ambient global settings object.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// DefaultMarkerDir is the sentinel subdirectory proving a game was installed
// by this tool rather than vanilla Steam.
const DefaultMarkerDir = ".DepotDownloader"

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// SizeCacheConfig configures the badger-backed directory-size cache used by
// the scanner.
type SizeCacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config represents the application configuration.
type Config struct {
	// Libraries are the Steam library roots to scan. Empty means the
	// default allowed bases are probed.
	Libraries []string `mapstructure:"libraries"`

	// AllowedBases are the Steam base directories a wipe target must
	// resolve under.
	AllowedBases []string `mapstructure:"allowed_bases"`

	// MarkerDir is the install-marker directory name.
	MarkerDir string `mapstructure:"marker_dir"`

	// BackupDir is where stats backups are stored.
	BackupDir string `mapstructure:"backup_dir"`

	SizeCache SizeCacheConfig `mapstructure:"size_cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DefaultAllowedBases returns the Steam base directories considered valid
// wipe-target roots on this machine.
func DefaultAllowedBases() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"/usr/local/games/steam", "/opt/steam"}
	}
	return []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		"/usr/local/games/steam",
		"/opt/steam",
	}
}

// Load loads configuration from file and environment variables. An explicit
// cfgFile wins; otherwise the file is searched for (in order of precedence):
//   - $XDG_CONFIG_HOME/accela/config.yaml
//   - $HOME/.config/accela/config.yaml
//
// Environment variables are prefixed with ACCELA_ (e.g. ACCELA_MARKER_DIR).
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "accela"))
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "accela"))
	}

	v.SetEnvPrefix("ACCELA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("libraries", []string{})
	v.SetDefault("allowed_bases", DefaultAllowedBases())
	v.SetDefault("marker_dir", DefaultMarkerDir)
	v.SetDefault("backup_dir", filepath.Join(DataDir(), "backups"))
	v.SetDefault("size_cache.enabled", true)
	v.SetDefault("size_cache.path", filepath.Join(CacheDir(), "sizes"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"scanner": "info",
		"engine":  "info",
		"cleanup": "info",
		"backup":  "info",
	})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i, lib := range cfg.Libraries {
		if expanded, err := ExpandPath(lib); err == nil {
			cfg.Libraries[i] = expanded
		}
	}
	for i, base := range cfg.AllowedBases {
		if expanded, err := ExpandPath(base); err == nil {
			cfg.AllowedBases[i] = expanded
		}
	}
	if expanded, err := ExpandPath(cfg.BackupDir); err == nil {
		cfg.BackupDir = expanded
	}

	return &cfg, nil
}

// LibraryRoots returns the configured library roots, falling back to the
// allowed bases that exist on disk when none are configured.
func (c *Config) LibraryRoots() []string {
	if len(c.Libraries) > 0 {
		return c.Libraries
	}
	var roots []string
	for _, base := range c.AllowedBases {
		if info, err := os.Stat(base); err == nil && info.IsDir() {
			roots = append(roots, base)
		}
	}
	return roots
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/accela/ for backups and other data.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "accela")
}

// StateDir returns $XDG_STATE_HOME/accela/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "accela")
}

// CacheDir returns $XDG_CACHE_HOME/accela/ for the size cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "accela")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "accela.log")
}

// EnsureDir creates a directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
