// SPDX-License-Identifier: MPL-2.0

// Package task declares the static table of named operations (install,
// test variants, docs, clean, container matrix) and executes them with
// explicit prerequisite ordering.
package task

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"sagemake/internal/config"
	"sagemake/internal/container"
	"sagemake/internal/sage"
)

type (
	// Task is a named, idempotent operation. Deps are executed in full,
	// exactly once per top-level invocation, before Run. A nil Run is a
	// pure aggregation target (e.g. "all").
	Task struct {
		Name    string
		Summary string
		Deps    []string
		Run     func(ctx context.Context, ec *ExecContext) *Result
	}

	// Result is the outcome of a task or invocation. A non-zero ExitCode
	// propagates unchanged to the process exit status; Err carries
	// orchestration failures that have no underlying tool status.
	Result struct {
		ExitCode int
		Err      error
	}

	// ExecContext carries the per-invocation state every task step sees:
	// the resolved runtime, the configuration, and the process streams.
	// It is the explicit handle for the otherwise-ambient working tree, so
	// tests can substitute a scratch repository and a fake runtime.
	ExecContext struct {
		Config  *config.Config
		Runtime sage.Runtime
		Logger  *log.Logger

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer

		// Branch and PlanNote are filled in by the test task for run
		// bookkeeping.
		Branch   string
		PlanNote string

		engine container.Engine
	}
)

// ContainerEngine lazily resolves the configured container engine and
// caches it for the rest of the invocation.
func (ec *ExecContext) ContainerEngine() (container.Engine, error) {
	if ec.engine != nil {
		return ec.engine, nil
	}
	engine, err := container.NewEngine(ec.Config.ContainerEngine)
	if err != nil {
		return nil, err
	}
	ec.engine = engine
	return engine, nil
}

// SetContainerEngine injects an engine (tests only).
func (ec *ExecContext) SetContainerEngine(engine container.Engine) {
	ec.engine = engine
}

// NewSuccessResult returns a zero Result.
func NewSuccessResult() *Result { return &Result{} }

// NewErrorResult returns a Result with the given exit code and error.
func NewErrorResult(code int, err error) *Result {
	return &Result{ExitCode: code, Err: err}
}

// Failed reports whether the result aborts the chain.
func (r *Result) Failed() bool {
	return r.ExitCode != 0 || r.Err != nil
}
