// SPDX-License-Identifier: MPL-2.0

// Package gitstate answers the two version-control questions the task
// runner needs: which branch is checked out, and which package source
// files carry pending changes relative to the trunk branch.
package gitstate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrRepositoryState is the sentinel error wrapped by RepositoryStateError.
var ErrRepositoryState = errors.New("repository state query failed")

// RepositoryStateError is returned when a version-control query cannot be
// answered (not a repository, missing trunk branch, detached HEAD, ...).
// Callers must treat it as distinct from an empty change set: "detection
// failed" must never silently become "nothing changed".
type RepositoryStateError struct {
	Op     string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *RepositoryStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns ErrRepositoryState plus any underlying error for errors.Is.
func (e *RepositoryStateError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRepositoryState, e.Err}
	}
	return []error{ErrRepositoryState}
}

// CurrentBranch returns the short name of the checked-out branch.
func CurrentBranch(root string) (string, error) {
	repo, err := open(root)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", &RepositoryStateError{Op: "current branch", Reason: "cannot resolve HEAD", Err: err}
	}
	if !head.Name().IsBranch() {
		return "", &RepositoryStateError{Op: "current branch", Reason: "HEAD is detached"}
	}
	return head.Name().Short(), nil
}

// Detect computes the set of files with pending modifications against the
// trunk branch, restricted to the extension filter (e.g. ".py").
//
// Three sources are merged, in order: files whose content differs between
// the merge base of HEAD and trunk and the HEAD commit, files staged for
// commit, and files modified in the worktree. The result contains no
// duplicates and preserves first-seen order. An empty result is a valid
// outcome and different from an error.
func Detect(root, trunk, ext string) ([]string, error) {
	repo, err := open(root)
	if err != nil {
		return nil, err
	}

	committed, err := committedAgainstTrunk(repo, trunk)
	if err != nil {
		return nil, err
	}

	staged, unstaged, err := pendingInWorktree(repo)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{committed, staged, unstaged} {
		for _, path := range group {
			if !strings.HasSuffix(path, ext) || seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, path)
		}
	}
	return out, nil
}

func open(root string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &RepositoryStateError{Op: "open repository", Reason: root, Err: err}
	}
	return repo, nil
}

// committedAgainstTrunk lists files whose trees differ between
// merge-base(HEAD, trunk) and HEAD. Deletions are skipped: a file that no
// longer exists cannot be handed to the test driver.
func committedAgainstTrunk(repo *git.Repository, trunk string) ([]string, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: "cannot resolve HEAD", Err: err}
	}

	trunkRef, err := repo.Reference(plumbing.NewBranchReferenceName(trunk), true)
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: fmt.Sprintf("trunk branch %q not found", trunk), Err: err}
	}

	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: "load HEAD commit", Err: err}
	}
	trunkCommit, err := repo.CommitObject(trunkRef.Hash())
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: "load trunk commit", Err: err}
	}

	base := trunkCommit
	if bases, err := headCommit.MergeBase(trunkCommit); err == nil && len(bases) > 0 {
		base = bases[0]
	}

	baseTree, err := base.Tree()
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: "load merge-base tree", Err: err}
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: "load HEAD tree", Err: err}
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, &RepositoryStateError{Op: "detect changes", Reason: "diff trees", Err: err}
	}

	var out []string
	for _, change := range changes {
		if change.To.Name == "" {
			continue // deletion
		}
		out = append(out, change.To.Name)
	}
	sort.Strings(out)
	return out, nil
}

// pendingInWorktree splits the worktree status into staged and unstaged
// paths. Each group is sorted so that the merged change set is
// deterministic; untracked files and deletions are excluded.
func pendingInWorktree(repo *git.Repository) (staged, unstaged []string, err error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, &RepositoryStateError{Op: "detect changes", Reason: "open worktree", Err: err}
	}

	status, err := wt.Status()
	if err != nil {
		return nil, nil, &RepositoryStateError{Op: "detect changes", Reason: "query status", Err: err}
	}

	for path, st := range status {
		switch st.Staging {
		case git.Added, git.Modified, git.Renamed, git.Copied:
			staged = append(staged, path)
		}
		if st.Worktree == git.Modified {
			unstaged = append(unstaged, path)
		}
	}
	sort.Strings(staged)
	sort.Strings(unstaged)
	return staged, unstaged, nil
}
