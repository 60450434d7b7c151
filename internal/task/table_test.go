// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"sagemake/internal/dag"
)

func TestTable_DeclaresEveryTask(t *testing.T) {
	t.Parallel()
	table := Table()
	for _, name := range Names() {
		tk, ok := table[name]
		if !ok {
			t.Errorf("task %q missing from table", name)
			continue
		}
		if tk.Name != name {
			t.Errorf("task %q registered under key %q", tk.Name, name)
		}
		if tk.Summary == "" && tk.Run != nil {
			t.Errorf("task %q has no summary", name)
		}
	}
	if len(table) != len(Names()) {
		t.Errorf("table has %d tasks, Names lists %d", len(table), len(Names()))
	}
}

func TestTable_Prerequisites(t *testing.T) {
	t.Parallel()
	table := Table()
	want := map[string][]string{
		"all":          {"test"},
		"test":         {"install"},
		"testall":      {"install"},
		"doc":          {"install"},
		"doc-pdf":      {"install"},
		"distclean":    {"clean", "clean-doc"},
		"rundocker":    {"builddocker"},
		"rundocker-m1": {"builddocker-m1"},
		"ci":           {"builddocker"},
	}
	for name, deps := range want {
		got := table[name].Deps
		if len(got) != len(deps) {
			t.Errorf("%s deps = %v, want %v", name, got, deps)
			continue
		}
		for i := range deps {
			if got[i] != deps[i] {
				t.Errorf("%s deps = %v, want %v", name, got, deps)
				break
			}
		}
	}
}

func TestTable_EveryTargetResolves(t *testing.T) {
	t.Parallel()
	table := Table()
	deps := func(name string) ([]string, bool) {
		tk, ok := table[name]
		if !ok {
			return nil, false
		}
		return tk.Deps, true
	}
	for _, name := range Names() {
		if _, err := dag.Resolve(name, deps); err != nil {
			t.Errorf("resolve %q: %v", name, err)
		}
	}
}

// initBranchRepo creates a repository with one commit on master and
// checks out a fresh feature branch.
func initBranchRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Master},
	})
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "claasp"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "claasp", "core.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := wt.Add("claasp/core.py"); err != nil {
		t.Fatalf("add: %v", err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return dir
}

func TestBranchTests_EmptySubsetSucceedsWithoutRunningAnything(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)
	ec.Config.RepoRoot = initBranchRepo(t)
	// An exec attempt would fail loudly with this binary.
	ec.Runtime.Binary = filepath.Join(t.TempDir(), "definitely-not-sage")

	res := runBranchTests(context.Background(), ec)
	if res.Failed() {
		t.Fatalf("empty subset must succeed, got %+v (err %v)", res.ExitCode, res.Err)
	}
	if ec.Branch != "feature" {
		t.Errorf("branch = %q, want feature", ec.Branch)
	}
	if ec.PlanNote == "" {
		t.Error("plan note not recorded")
	}
}
