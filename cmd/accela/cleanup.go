package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/accela-project/accela/pkg/accela/cleanup"
	"github.com/accela-project/accela/pkg/accela/logging"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <install-dir>",
	Short: "Wipe a cancelled download's install directory",
	Long: `Completely wipe the install directory of a cancelled or interrupted
download. Every item inside the directory is removed after the directory
passes layered safety validation; a removal log is written into the
directory for later review. With --partial-only, only temporary and
partial download artifacts are removed and real game files are kept.

This operation runs only as part of a cancel session: --app-id, --name and
--session are required (--session may be generated with --new-session).`,
	Args: cobra.ExactArgs(1),
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().String("app-id", "", "app id of the game being cancelled (required)")
	cleanupCmd.Flags().String("name", "", "name of the game being cancelled (required)")
	cleanupCmd.Flags().String("session", "", "active cancel session id")
	cleanupCmd.Flags().Bool("new-session", false, "generate a session id instead of supplying one")
	cleanupCmd.Flags().Bool("partial-only", false, "remove only partial/temporary download artifacts")
	cleanupCmd.Flags().BoolP("dry-run", "d", false, "log intended removals without deleting anything")
	_ = cleanupCmd.MarkFlagRequired("app-id")
	_ = cleanupCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if newSession, _ := cmd.Flags().GetBool("new-session"); newSession && sessionID == "" {
		sessionID = uuid.NewString()
	}

	appID, _ := cmd.Flags().GetString("app-id")
	name, _ := cmd.Flags().GetString("name")
	partialOnly, _ := cmd.Flags().GetBool("partial-only")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := cleanup.New(cfg).Run(ctx, cleanup.Request{
		InstallDir:  args[0],
		Game:        cleanup.GameData{AppID: appID, GameName: name},
		SessionID:   sessionID,
		PartialOnly: partialOnly,
		DryRun:      dryRun,
	})

	if getJSON() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, warning := range result.Warnings {
		printInfo("warning: %s", warning)
	}
	if !result.Success {
		return fmt.Errorf("cleanup rejected: %v", result.Errors)
	}
	printInfo("%s", result.Summary())
	for _, errMsg := range result.Errors {
		printInfo("error: %s", errMsg)
	}
	return nil
}
