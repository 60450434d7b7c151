// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// guideText is the built-in workflow walkthrough, rendered with glamour.
const guideText = `
# The sagemake workflow

sagemake replaces the old Makefile-driven workflow with a single binary.
Every former make target is a task; run ` + "`sagemake list`" + ` to see them all.

## Picking the runtime

The runtime binary is resolved once per invocation:

1. If a ` + "`SAGE_BIN`" + ` file exists at the repository root, its contents
   (trimmed) are the binary path.
2. Otherwise the command ` + "`sage`" + ` is used and resolved from PATH when
   the task actually runs.

An empty or unreadable ` + "`SAGE_BIN`" + ` is an error, not a fallback: a pin
that cannot be honored is reported instead of silently ignored.

## Branch-aware testing

` + "`sagemake test`" + ` reinstalls the package, then decides what to test:

- On the trunk branch (` + "`master`" + ` by default) the whole suite runs.
- On any other branch, only the package source files that changed against
  the merge point with trunk run: committed, staged, and unstaged changes
  all count, each file once.
- No changed files means success with nothing executed. Use
  ` + "`sagemake testall`" + ` to force the full suite on a feature branch.

## Containers

` + "`builddocker`" + ` / ` + "`rundocker`" + ` build and enter the project image
with the working tree mounted. The ` + "`-m1`" + ` variants pin the image to
linux/amd64 for Apple Silicon hosts. ` + "`sagemake ci`" + ` reproduces the
trunk pipeline: build the image, inspect it, run the suite inside.

## Configuration

Settings come from ` + "`.sagemake.toml`" + ` at the repository root, a
` + "`.env`" + ` file, and ` + "`SAGEMAKE_*`" + ` environment variables.
` + "`TESTED_MODULE`" + ` keeps its historical unprefixed name and narrows
the full-suite target.
`

// guideCmd renders the built-in guide for the terminal.
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the workflow guide",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		rendered, err := glamour.Render(guideText, "dark")
		if err != nil {
			fmt.Fprint(c.OutOrStdout(), guideText)
			return nil
		}
		fmt.Fprint(c.OutOrStdout(), rendered)
		return nil
	},
}
