package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/accela-project/accela/pkg/accela/backup"
	"github.com/accela-project/accela/pkg/accela/logging"
	"github.com/accela-project/accela/pkg/accela/types"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage Steam stats backups",
	Long:  `Create, list, restore and delete ZIP snapshots of the Steam stats directory.`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a stats backup",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stats backups",
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore a stats backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupRestore,
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <archive>",
	Short: "Delete a stats backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupDelete,
}

func init() {
	backupRestoreCmd.Flags().Bool("no-safety-backup", false, "skip the pre-restore backup of the current state")
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd)
	rootCmd.AddCommand(backupCmd)
}

func newArchiver() (*backup.Archiver, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return backup.New(cfg), nil
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	archiver, err := newArchiver()
	if err != nil {
		return err
	}
	defer logging.Close()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	path, err := archiver.Create(name)
	if err != nil {
		return err
	}
	printInfo("Backup created: %s", path)
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	archiver, err := newArchiver()
	if err != nil {
		return err
	}
	defer logging.Close()

	backups, err := archiver.List()
	if err != nil {
		return err
	}

	if getJSON() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(backups)
	}

	if len(backups) == 0 {
		printInfo("No backups found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tFILES\tCREATED")
	for _, info := range backups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", info.Name, types.FormatSize(info.SizeBytes),
			info.FileCount, info.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	archiver, err := newArchiver()
	if err != nil {
		return err
	}
	defer logging.Close()

	noSafety, _ := cmd.Flags().GetBool("no-safety-backup")
	if err := archiver.Restore(args[0], !noSafety); err != nil {
		return err
	}
	printInfo("Backup restored: %s", args[0])
	return nil
}

func runBackupDelete(cmd *cobra.Command, args []string) error {
	archiver, err := newArchiver()
	if err != nil {
		return err
	}
	defer logging.Close()

	if err := archiver.Delete(args[0]); err != nil {
		return err
	}
	printInfo("Backup deleted: %s", args[0])
	return nil
}
