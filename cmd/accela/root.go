package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accela-project/accela/pkg/accela/config"
	"github.com/accela-project/accela/pkg/accela/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "accela",
		Short: "Manage Steam games installed by accela",
		Long: `Accela scans Steam libraries for games it installed and removes them
safely, including interrupted-download cleanup with a persisted audit log.

Examples:
  accela list                          # List installed accela games
  accela remove 570                    # Delete a game, keep save data
  accela remove 570 --save-data        # Delete a game and its save data
  accela cleanup /path --session s123  # Wipe a cancelled download directory
  accela logs /path                    # Show cleanup logs for a directory
  accela backup create                 # Snapshot the Steam stats directory`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/accela/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "output JSON format")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// loadConfig loads the configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if viper.GetBool("verbose") {
		level = "debug"
	}
	if err := logging.Init(logging.Config{
		Level:      level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
		Quiet:      viper.GetBool("quiet"),
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getJSON returns true if JSON output is requested.
func getJSON() bool {
	return viper.GetBool("json")
}

// printInfo prints a message unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !viper.GetBool("quiet") {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
