// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sagemake/internal/config"
	"sagemake/internal/container"
	"sagemake/internal/gitstate"
	"sagemake/internal/history"
	"sagemake/internal/issue"
	"sagemake/internal/sage"
	"sagemake/internal/task"
)

// registerTaskCommands adds one subcommand per entry in the task table,
// so `sagemake test` works the way `make test` used to.
func registerTaskCommands(root *cobra.Command) {
	table := task.Table()
	for _, name := range task.Names() {
		t := table[name]
		root.AddCommand(&cobra.Command{
			Use:   t.Name,
			Short: t.Summary,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return runTask(c, t.Name)
			},
		})
	}
}

// runTask executes one top-level task with its prerequisites and maps the
// outcome to the process exit status.
func runTask(c *cobra.Command, name string) error {
	logger := newLogger()

	root, err := resolveRepoRoot()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	cfg, err := config.Load(root, cfgFile)
	if err != nil {
		renderIssue(issue.ConfigLoadFailedId)
		return &ExitError{Code: 1, Err: err}
	}
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	runtime, err := sage.Resolve(root)
	if err != nil {
		renderIssue(issue.RuntimeResolutionFailedId)
		return &ExitError{Code: 1, Err: err}
	}
	logger.Debug("runtime resolved", "binary", runtime.Binary)

	runner := task.NewRunner()
	if cfg.HistoryPath != "" {
		if store := openHistory(c, cfg); store != nil {
			defer store.Close()
			runner.WithHistory(store)
		}
	}

	ec := &task.ExecContext{
		Config:  cfg,
		Runtime: runtime,
		Logger:  logger,
		Stdin:   os.Stdin,
		Stdout:  c.OutOrStdout(),
		Stderr:  c.ErrOrStderr(),
	}

	res := runner.Run(c.Context(), ec, name)
	if !res.Failed() {
		return nil
	}

	if res.Err != nil {
		renderIssueFor(res.Err)
		fmt.Fprintln(c.ErrOrStderr(), ErrorStyle.Render("Error: ")+res.Err.Error())
	}
	code := res.ExitCode
	if code == 0 {
		code = 1
	}
	return &ExitError{Code: code, Err: res.Err}
}

// openHistory opens the run-history store; history is best-effort, so any
// failure here only logs.
func openHistory(c *cobra.Command, cfg *config.Config) *history.Store {
	path := cfg.HistoryPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.RepoRoot, path)
	}
	store, err := history.Open(path)
	if err != nil {
		newLogger().Debug("history unavailable", "err", err)
		return nil
	}
	if err := store.Init(c.Context()); err != nil {
		newLogger().Debug("history unavailable", "err", err)
		store.Close()
		return nil
	}
	return store
}

// renderIssueFor prints the guidance matching a typed failure, when one
// exists. Unknown errors get no card; their message is printed as-is.
func renderIssueFor(err error) {
	var (
		engineMissing *container.EngineNotAvailableError
		engineUnknown *container.UnknownEngineError
	)
	switch {
	case errors.Is(err, sage.ErrResolution):
		renderIssue(issue.RuntimeResolutionFailedId)
	case errors.Is(err, gitstate.ErrRepositoryState):
		renderIssue(issue.RepositoryStateFailedId)
	case errors.Is(err, task.ErrTaskNotFound):
		renderIssue(issue.TaskNotFoundId)
	case errors.Is(err, task.ErrFilesystem):
		renderIssue(issue.ArtifactRemovalFailedId)
	case errors.As(err, &engineMissing), errors.As(err, &engineUnknown):
		renderIssue(issue.ContainerEngineNotFoundId)
	}
}

func renderIssue(id issue.Id) {
	iss := issue.Get(id)
	if iss == nil {
		return
	}
	rendered, err := iss.Render()
	if err != nil {
		fmt.Fprintln(os.Stderr, string(iss.MarkdownMsg()))
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}
