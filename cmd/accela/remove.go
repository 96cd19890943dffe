package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/accela-project/accela/pkg/accela/engine"
	"github.com/accela-project/accela/pkg/accela/logging"
	"github.com/accela-project/accela/pkg/accela/scanner"
)

var removeCmd = &cobra.Command{
	Use:   "remove <appid>",
	Short: "Delete a game installed by accela",
	Long: `Delete a game's manifest and install directory. Save data (compatdata)
is preserved unless --save-data is given. Deletion is irreversible.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().Bool("save-data", false, "also delete the game's compatdata save directory")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Close()

	appID := args[0]
	deleteSaveData, _ := cmd.Flags().GetBool("save-data")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A fresh scan re-validates the record against the filesystem; stale
	// records must never be acted on.
	records, err := scanner.New(cfg, nil).Scan(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.AppID != appID {
			continue
		}

		result, message := engine.New(cfg).Delete(ctx, rec, deleteSaveData)
		if getJSON() {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		if !result.Success {
			return fmt.Errorf("%s", message)
		}
		printInfo("%s", message)
		for _, warning := range result.Warnings {
			printInfo("warning: %s", warning)
		}
		return nil
	}

	return fmt.Errorf("no accela game with app id %s found", appID)
}
