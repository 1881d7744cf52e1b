// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-renamer/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List renames recorded by previous execute runs",
	Long: `History lists executed renames from the local ledger, newest first.
The ledger is what lets later runs detect collisions with files renamed
by earlier runs instead of overwriting them.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")
	historyCmd.Flags().Bool("json", false, "emit entries as JSON")
	historyCmd.Flags().String("history-dir", "history", "directory holding the rename ledger")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	historyDir, _ := cmd.Flags().GetString("history-dir")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !history.Exists(historyDir) {
		fmt.Println("No rename history yet.")
		return nil
	}

	store, err := history.NewStore(historyDir)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No rename history yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%s  %s -> %s\n",
			e.RenamedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(e.SourcePath), filepath.Base(e.TargetPath))
	}
	return nil
}
