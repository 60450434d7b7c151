// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"sagemake/internal/config"
	"sagemake/internal/sage"
)

func testExecContext(t *testing.T) *ExecContext {
	t.Helper()
	return &ExecContext{
		Config: &config.Config{
			RepoRoot:    t.TempDir(),
			TrunkBranch: "master",
			Package:     "claasp",
			SourceExt:   ".py",
			DocsDir:     "docs",
		},
		Runtime: sage.Runtime{Binary: "sage", Source: sage.SourceDefault},
		Logger:  log.New(io.Discard),
		Stdin:   nil,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
}

func recordingTask(name string, deps []string, trace *[]string, res *Result) *Task {
	return &Task{
		Name: name,
		Deps: deps,
		Run: func(ctx context.Context, ec *ExecContext) *Result {
			*trace = append(*trace, name)
			if res != nil {
				return res
			}
			return NewSuccessResult()
		},
	}
}

func TestRunner_PrerequisiteOrder(t *testing.T) {
	t.Parallel()
	var trace []string
	tasks := map[string]*Task{
		"install": recordingTask("install", nil, &trace, nil),
		"test":    recordingTask("test", []string{"install"}, &trace, nil),
		"all":     {Name: "all", Deps: []string{"test"}},
	}

	res := NewRunnerWithTable(tasks).Run(context.Background(), testExecContext(t), "all")
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	want := []string{"install", "test"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestRunner_SharedPrerequisiteRunsOnce(t *testing.T) {
	t.Parallel()
	var trace []string
	tasks := map[string]*Task{
		"install": recordingTask("install", nil, &trace, nil),
		"doc":     recordingTask("doc", []string{"install"}, &trace, nil),
		"test":    recordingTask("test", []string{"install"}, &trace, nil),
		"both":    {Name: "both", Deps: []string{"doc", "test"}},
	}

	res := NewRunnerWithTable(tasks).Run(context.Background(), testExecContext(t), "both")
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	installs := 0
	for _, name := range trace {
		if name == "install" {
			installs++
		}
	}
	if installs != 1 {
		t.Errorf("install ran %d times, want 1 (trace %v)", installs, trace)
	}
}

func TestRunner_FirstFailureAbortsWithStatus(t *testing.T) {
	t.Parallel()
	var trace []string
	tasks := map[string]*Task{
		"install": recordingTask("install", nil, &trace, &Result{ExitCode: 3}),
		"test":    recordingTask("test", []string{"install"}, &trace, nil),
	}

	res := NewRunnerWithTable(tasks).Run(context.Background(), testExecContext(t), "test")
	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("exit status = %d, want 3 unchanged", res.ExitCode)
	}
	for _, name := range trace {
		if name == "test" {
			t.Error("dependent ran after prerequisite failed")
		}
	}
}

func TestRunner_UnknownTask(t *testing.T) {
	t.Parallel()
	res := NewRunner().Run(context.Background(), testExecContext(t), "no-such-task")
	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", res.Err)
	}
}

func TestRunner_AggregationTargetHasNoBody(t *testing.T) {
	t.Parallel()
	var trace []string
	tasks := map[string]*Task{
		"leaf": recordingTask("leaf", nil, &trace, nil),
		"agg":  {Name: "agg", Deps: []string{"leaf"}},
	}
	res := NewRunnerWithTable(tasks).Run(context.Background(), testExecContext(t), "agg")
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if len(trace) != 1 || trace[0] != "leaf" {
		t.Errorf("trace = %v, want [leaf]", trace)
	}
}
