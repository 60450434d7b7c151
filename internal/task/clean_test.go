// SPDX-License-Identifier: MPL-2.0

package task

import (
	"os"
	"path/filepath"
	"testing"
)

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRemovePaths(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)
	root := ec.Config.RepoRoot

	mustWrite(t, filepath.Join(root, "build", "lib", "mod.py"))
	mustWrite(t, filepath.Join(root, "docs", "build", "index.html"))
	mustWrite(t, filepath.Join(root, "docs", "source", "index.rst"))

	res := removePaths(ec, "build", "docs/build")
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(err) {
		t.Error("build directory survived")
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "build")); !os.IsNotExist(err) {
		t.Error("docs/build survived")
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "source", "index.rst")); err != nil {
		t.Error("unrelated file removed")
	}
}

func TestRemovePaths_AbsentTargetsSucceed(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)
	if res := removePaths(ec, "build", "dist", "never-existed"); res.Failed() {
		t.Fatalf("absent targets must succeed: %+v", res)
	}
	// Idempotent by contract.
	if res := removePaths(ec, "build"); res.Failed() {
		t.Fatalf("second run must succeed: %+v", res)
	}
}

func TestRemoveByName(t *testing.T) {
	t.Parallel()
	ec := testExecContext(t)
	root := ec.Config.RepoRoot

	mustWrite(t, filepath.Join(root, "claasp", "__pycache__", "core.cpython-311.pyc"))
	mustWrite(t, filepath.Join(root, "claasp", "fast_math.so"))
	mustWrite(t, filepath.Join(root, "claasp", "core.py"))
	mustWrite(t, filepath.Join(root, ".git", "objects", "deadbeef.so"))

	res := removeByName(ec, []string{"__pycache__"}, []string{".so", ".pyc"})
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, "claasp", "__pycache__")); !os.IsNotExist(err) {
		t.Error("bytecode cache survived")
	}
	if _, err := os.Stat(filepath.Join(root, "claasp", "fast_math.so")); !os.IsNotExist(err) {
		t.Error("compiled extension survived")
	}
	if _, err := os.Stat(filepath.Join(root, "claasp", "core.py")); err != nil {
		t.Error("source file removed")
	}
	if _, err := os.Stat(filepath.Join(root, ".git", "objects", "deadbeef.so")); err != nil {
		t.Error("walk entered .git")
	}
}
