// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// ErrFilesystem is the sentinel error wrapped by FilesystemError.
var ErrFilesystem = errors.New("artifact removal failed")

// FilesystemError is returned when a clean target cannot be deleted for a
// reason other than absence. Absence is never an error: clean targets are
// idempotent by contract.
type FilesystemError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrFilesystem plus the underlying error for errors.Is.
func (e *FilesystemError) Unwrap() []error {
	return []error{ErrFilesystem, e.Err}
}

// removePaths deletes the given repo-relative paths. Already-absent
// targets succeed silently.
func removePaths(ec *ExecContext, relPaths ...string) *Result {
	for _, rel := range relPaths {
		path := filepath.Join(ec.Config.RepoRoot, filepath.FromSlash(rel))
		ec.Logger.Debug("removing", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return NewErrorResult(1, &FilesystemError{Path: path, Err: err})
		}
	}
	return NewSuccessResult()
}

// removeByName walks the working tree deleting directories whose name is
// in dirNames (bytecode caches) and files whose extension is in exts
// (compiled extension modules). The .git directory is never entered.
func removeByName(ec *ExecContext, dirNames, exts []string) *Result {
	root := ec.Config.RepoRoot
	var doomed []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			switch {
			case path != root && d.Name() == ".git":
				return filepath.SkipDir
			case slices.Contains(dirNames, d.Name()):
				doomed = append(doomed, path)
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(exts, filepath.Ext(d.Name())) {
			doomed = append(doomed, path)
		}
		return nil
	})
	if err != nil {
		return NewErrorResult(1, &FilesystemError{Path: root, Err: err})
	}

	for _, path := range doomed {
		ec.Logger.Debug("removing", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return NewErrorResult(1, &FilesystemError{Path: path, Err: err})
		}
	}
	return NewSuccessResult()
}
