package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/accela-project/accela/pkg/accela/logging"
	"github.com/accela-project/accela/pkg/accela/scanner"
	"github.com/accela-project/accela/pkg/accela/sizecache"
	"github.com/accela-project/accela/pkg/accela/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List games installed by accela",
	Long: `Scan all configured Steam libraries and list the games accela installed.
Vanilla Steam installs are excluded.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("no-cache", false, "bypass the size cache, walk every game directory")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cache *sizecache.Store
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if cfg.SizeCache.Enabled && !noCache {
		if cache, err = sizecache.Open(cfg.SizeCache.Path); err != nil {
			logging.Get("scanner").Warn("size cache unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	records, err := scanner.New(cfg, cache).Scan(ctx)
	if err != nil {
		return err
	}

	if getJSON() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		printInfo("No accela games found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APPID\tNAME\tSIZE\tLIBRARY")
	var total int64
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.AppID, rec.DisplayName, rec.HumanSize(), rec.LibraryPath)
		total += rec.SizeBytes
	}
	w.Flush()
	printInfo("\n%d games, %s total", len(records), types.FormatSize(total))
	return nil
}
