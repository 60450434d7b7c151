// SPDX-License-Identifier: MPL-2.0

package task

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExec_ExitStatusPropagatesUnchanged(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)

	res := Exec(context.Background(), ec, "", "sh", "-c", "exit 7")
	if res.Err != nil {
		t.Fatalf("a started-but-failed step must not surface an error: %v", res.Err)
	}
	if res.ExitCode != 7 {
		t.Errorf("exit status = %d, want 7", res.ExitCode)
	}
}

func TestExec_CapturesStdout(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)
	var out bytes.Buffer
	ec.Stdout = &out

	res := Exec(context.Background(), ec, "", "sh", "-c", "echo hello")
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if got := strings.TrimSpace(out.String()); got != "hello" {
		t.Errorf("stdout = %q, want hello", got)
	}
}

func TestExec_StartFailure(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)

	res := Exec(context.Background(), ec, "", "/no/such/binary")
	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, ErrInvocation) {
		t.Errorf("err = %v, want ErrInvocation", res.Err)
	}
}

func TestShell_ExitStatusPropagatesUnchanged(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)

	res := Shell(context.Background(), ec, "", "exit 3")
	if res.Err != nil {
		t.Fatalf("a completed script must not surface an error: %v", res.Err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit status = %d, want 3", res.ExitCode)
	}
}

func TestShell_RunsFromRequestedDir(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)
	var out bytes.Buffer
	ec.Stdout = &out

	res := Shell(context.Background(), ec, ec.Config.RepoRoot, "pwd")
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if got := strings.TrimSpace(out.String()); got != ec.Config.RepoRoot {
		t.Errorf("pwd = %q, want %q", got, ec.Config.RepoRoot)
	}
}

func TestShell_ParseError(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)

	res := Shell(context.Background(), ec, "", "if then fi (")
	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, ErrInvocation) {
		t.Errorf("err = %v, want ErrInvocation", res.Err)
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"sage", "sage"},
		{"my sage", `'my sage'`},
	} {
		if got := quote(tc.in); got != tc.want {
			t.Errorf("quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
