// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sagemake/internal/config"
	"sagemake/internal/history"
)

var historyLimit int

// historyCmd shows the most recent task runs from the local history db.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent task runs",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		root, err := resolveRepoRoot()
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		cfg, err := config.Load(root, cfgFile)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		if cfg.HistoryPath == "" {
			fmt.Fprintln(c.OutOrStdout(), SubtitleStyle.Render("run history is disabled (history_path is empty)"))
			return nil
		}

		path := cfg.HistoryPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.RepoRoot, path)
		}
		store, err := history.Open(path)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		defer store.Close()
		if err := store.Init(c.Context()); err != nil {
			return &ExitError{Code: 1, Err: err}
		}

		records, err := store.Recent(c.Context(), historyLimit)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		if len(records) == 0 {
			fmt.Fprintln(c.OutOrStdout(), SubtitleStyle.Render("no runs recorded yet"))
			return nil
		}

		fmt.Fprintln(c.OutOrStdout(), TitleStyle.Render("Recent runs"))
		for _, rec := range records {
			status := SuccessStyle.Render("ok")
			if rec.ExitStatus != 0 {
				status = ErrorStyle.Render(fmt.Sprintf("exit %d", rec.ExitStatus))
			}
			line := fmt.Sprintf("  %s  %-12s %-10s %8s  %s",
				rec.StartedAt.Local().Format(time.DateTime),
				TaskStyle.Render(rec.Task),
				rec.Branch,
				rec.Duration.Round(time.Millisecond),
				status)
			fmt.Fprintln(c.OutOrStdout(), line)
			if rec.Plan != "" {
				fmt.Fprintln(c.OutOrStdout(), SubtitleStyle.Render("      plan: "+rec.Plan))
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to show")
}
