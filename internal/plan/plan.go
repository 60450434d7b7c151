// SPDX-License-Identifier: MPL-2.0

// Package plan decides which tests run for a given branch: the complete
// suite on the trunk branch, or only the files that changed everywhere
// else.
package plan

import "fmt"

type (
	// Kind discriminates the TestPlan variants. It is a tagged value rather
	// than a boolean so that a future variant (for example an explicit
	// "skip" plan) cannot be conflated with either existing one.
	Kind int

	// TestPlan is the outcome of the branch policy. For KindFileSubset,
	// Files holds the deduplicated change set; an empty subset is a valid
	// plan meaning "no package source changes, nothing to test at this
	// granularity" and must execute zero tests successfully.
	TestPlan struct {
		Kind  Kind
		Files []string
	}
)

const (
	// KindFullSuite runs the runtime's full test driver over the package.
	KindFullSuite Kind = iota
	// KindFileSubset runs the test driver scoped to exactly Files.
	KindFileSubset
)

// Select applies the branch policy. The decision depends only on the
// branch identifier: the trunk branch always gets the full suite, every
// other branch gets the change-set subset, even when it is empty.
func Select(branch, trunk string, changed []string) TestPlan {
	if branch == trunk {
		return TestPlan{Kind: KindFullSuite}
	}
	return TestPlan{Kind: KindFileSubset, Files: changed}
}

// String returns a short human-readable description, for logging.
func (p TestPlan) String() string {
	switch p.Kind {
	case KindFullSuite:
		return "full suite"
	case KindFileSubset:
		return fmt.Sprintf("file subset (%d files)", len(p.Files))
	default:
		return fmt.Sprintf("unknown plan kind %d", int(p.Kind))
	}
}
