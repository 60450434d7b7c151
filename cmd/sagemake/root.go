// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for sagemake.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// repoRoot overrides the working tree (default: current directory)
	repoRoot string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "sagemake",
		Short: "Build, test, and documentation orchestrator for Sage packages",
		Long: TitleStyle.Render("sagemake") + SubtitleStyle.Render(" - Build, test, and documentation orchestrator for Sage packages") + `

sagemake drives the development workflow of a Python package that runs
inside the SageMath runtime: install, branch-aware testing, doctest
coverage, sphinx documentation, cleanup, and a Docker matrix for
architecture parity.

On the trunk branch the test task runs the whole suite; on any other
branch it runs exactly the package files that changed against trunk.

` + SubtitleStyle.Render("Quick Start:") + `
  1. cd into the package checkout
  2. Optionally pin the runtime: echo /opt/sage/sage > SAGE_BIN
  3. Run a task: sagemake test

` + SubtitleStyle.Render("Examples:") + `
  sagemake list             List all available tasks
  sagemake test             Reinstall, then run branch-appropriate tests
  sagemake doc              Build the HTML documentation
  sagemake rundocker        Shell into a container with the tree mounted
  sagemake history          Show recent task runs`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <repo>/.sagemake.toml)")
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo", "", "repository root (default is the current directory)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(guideCmd)
	registerTaskCommands(rootCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// resolveRepoRoot returns the working tree the invocation targets.
func resolveRepoRoot() (string, error) {
	if repoRoot != "" {
		return repoRoot, nil
	}
	return os.Getwd()
}

// newLogger builds the CLI logger; --verbose raises it to debug level.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "sagemake",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
