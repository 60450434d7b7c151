// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sagemake/internal/dag"
	"sagemake/internal/history"
)

// ErrTaskNotFound is the sentinel error wrapped by TaskNotFoundError.
var ErrTaskNotFound = errors.New("task not found")

// TaskNotFoundError is returned when the requested target, or one of its
// prerequisites, is not in the table.
type TaskNotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("unknown task %q", e.Name)
}

// Unwrap returns ErrTaskNotFound for errors.Is.
func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// Runner executes tasks from the static table in dependency order.
// Prerequisites run exactly once per invocation, and the first failing
// step aborts the chain with its status intact.
type Runner struct {
	tasks   map[string]*Task
	history *history.Store
}

// NewRunner builds a runner over the default table.
func NewRunner() *Runner {
	return &Runner{tasks: Table()}
}

// NewRunnerWithTable builds a runner over an explicit table (tests).
func NewRunnerWithTable(tasks map[string]*Task) *Runner {
	return &Runner{tasks: tasks}
}

// WithHistory attaches a run-history store. Recording is best-effort:
// a failing store never changes a task's outcome.
func (r *Runner) WithHistory(store *history.Store) *Runner {
	r.history = store
	return r
}

// Lookup returns the named task from the table.
func (r *Runner) Lookup(name string) (*Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Run executes target and its transitive prerequisites. The returned
// Result carries the exit status of the first failing step, or zero when
// every step succeeds.
func (r *Runner) Run(ctx context.Context, ec *ExecContext, target string) *Result {
	order, err := dag.Resolve(target, func(name string) ([]string, bool) {
		t, ok := r.tasks[name]
		if !ok {
			return nil, false
		}
		return t.Deps, true
	})
	if err != nil {
		var unknown *dag.UnknownTaskError
		if errors.As(err, &unknown) {
			return NewErrorResult(1, &TaskNotFoundError{Name: unknown.Name})
		}
		return NewErrorResult(1, err)
	}

	for _, name := range order {
		t := r.tasks[name]
		if t.Run == nil {
			continue
		}
		ec.Logger.Debug("running task", "task", name)

		started := time.Now()
		res := t.Run(ctx, ec)
		r.record(ctx, ec, name, res, started)

		if res.Failed() {
			ec.Logger.Error("task failed", "task", name, "status", res.ExitCode)
			return res
		}
	}
	return NewSuccessResult()
}

func (r *Runner) record(ctx context.Context, ec *ExecContext, name string, res *Result, started time.Time) {
	if r.history == nil {
		return
	}
	rec := history.Record{
		Task:       name,
		Branch:     ec.Branch,
		Plan:       ec.PlanNote,
		ExitStatus: res.ExitCode,
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if err := r.history.Append(ctx, rec); err != nil {
		ec.Logger.Debug("history append failed", "err", err)
	}
}
