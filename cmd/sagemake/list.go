// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sagemake/internal/task"
)

// listCmd prints every task in the table with its summary.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available tasks",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		table := task.Table()
		out := c.OutOrStdout()

		fmt.Fprintln(out, TitleStyle.Render("Tasks"))
		for _, name := range task.Names() {
			t := table[name]
			fmt.Fprintf(out, "  %s  %s\n",
				TaskStyle.Render(fmt.Sprintf("%-16s", t.Name)),
				SubtitleStyle.Render(t.Summary))
			if len(t.Deps) > 0 {
				fmt.Fprintf(out, "  %-16s  %s\n", "",
					SubtitleStyle.Render(fmt.Sprintf("runs first: %v", t.Deps)))
			}
		}
		return nil
	},
}
