// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrInvocation is the sentinel error wrapped by InvocationError.
var ErrInvocation = errors.New("invocation failed")

// InvocationError is returned when an external step could not be started
// at all. Steps that start and exit non-zero are not errors at this
// layer; their status propagates through Result.ExitCode instead, and
// their own diagnostic output is left untouched.
type InvocationError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation %q failed to start: %v", e.Step, e.Err)
}

// Unwrap returns ErrInvocation plus the underlying error for errors.Is.
func (e *InvocationError) Unwrap() []error {
	return []error{ErrInvocation, e.Err}
}

// Exec runs argv from dir (the repository root when empty) with the
// inherited process environment, wiring the context's streams through.
func Exec(ctx context.Context, ec *ExecContext, dir string, argv ...string) *Result {
	if len(argv) == 0 {
		return NewErrorResult(1, &InvocationError{Step: "<empty>", Err: errors.New("no arguments")})
	}
	if dir == "" {
		dir = ec.Config.RepoRoot
	}
	ec.Logger.Debug("exec", "argv", strings.Join(argv, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdin = ec.Stdin
	cmd.Stdout = ec.Stdout
	cmd.Stderr = ec.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{ExitCode: exitErr.ExitCode()}
		}
		return NewErrorResult(1, &InvocationError{Step: argv[0], Err: err})
	}
	return NewSuccessResult()
}

// Shell runs a shell-string invocation through the embedded interpreter,
// from dir (the repository root when empty). It exists for the steps that
// genuinely need shell semantics, like uninstall's `cd "$HOME" &&` prefix
// and the runtime-shell documentation builds.
func Shell(ctx context.Context, ec *ExecContext, dir, script string) *Result {
	if dir == "" {
		dir = ec.Config.RepoRoot
	}
	ec.Logger.Debug("shell", "script", script, "dir", dir)

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "invocation")
	if err != nil {
		return NewErrorResult(1, &InvocationError{Step: script, Err: err})
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(ec.Stdin, ec.Stdout, ec.Stderr),
	)
	if err != nil {
		return NewErrorResult(1, &InvocationError{Step: script, Err: err})
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: int(exitStatus)}
		}
		return NewErrorResult(1, &InvocationError{Step: script, Err: err})
	}
	return NewSuccessResult()
}

// quote makes s safe to splice into a shell-string invocation.
func quote(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return quoted
}
