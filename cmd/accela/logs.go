package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/accela-project/accela/pkg/accela/cleanup"
)

var logsCmd = &cobra.Command{
	Use:   "logs <install-dir>",
	Short: "Show cleanup removal logs for a directory",
	Long: `Read back the removal logs previous cleanup runs wrote into a directory,
newest first. Logs are never pruned automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	logs, err := cleanup.RemovalLogs(args[0])
	if err != nil {
		return err
	}

	if getJSON() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(logs)
	}

	if len(logs) == 0 {
		printInfo("No cleanup logs found in %s.", args[0])
		return nil
	}

	for _, entry := range logs {
		fmt.Printf("%s  session=%s  game=%s (%s)\n",
			entry.Timestamp.Format(time.RFC3339), entry.SessionID,
			entry.Game.GameName, entry.Game.AppID)
		fmt.Printf("  %s\n", entry.Result.Summary())
		for _, rem := range entry.Removals {
			fmt.Printf("  %-9s %s\n", rem.Type, rem.Path)
		}
	}
	return nil
}
