// SPDX-License-Identifier: MPL-2.0

// Package sage resolves which executable fronts the SageMath runtime.
//
// A repository may pin the runtime by writing the binary path into a
// sentinel file (SAGE_BIN) at the repository root. When the sentinel is
// absent, the plain command name "sage" is used and left to PATH lookup
// at invocation time.
package sage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// SentinelFile is the repo-relative file that overrides the runtime binary.
	SentinelFile = "SAGE_BIN"
	// DefaultBinary is the command name used when no override is present.
	DefaultBinary = "sage"
)

// ErrResolution is the sentinel error wrapped by ResolutionError.
var ErrResolution = errors.New("runtime resolution failed")

type (
	// Source records where a Runtime's binary came from.
	Source int

	// Runtime is the resolved mathematics runtime. It is created once per
	// top-level task invocation and never mutated afterwards.
	Runtime struct {
		// Binary is an executable path or a bare command name.
		Binary string
		// Source tells whether Binary came from the sentinel or the default.
		Source Source
	}

	// ResolutionError is returned when the runtime binary cannot be
	// determined. An unreadable or empty sentinel file is an error, never a
	// silent fallback: an override that cannot be honored must not be masked.
	ResolutionError struct {
		Path   string
		Reason string
		Err    error
	}
)

const (
	// SourceDefault means the built-in command name was used.
	SourceDefault Source = iota
	// SourceSentinel means the sentinel file supplied the binary.
	SourceSentinel
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve runtime from %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve runtime from %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrResolution plus any underlying IO error for errors.Is.
func (e *ResolutionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrResolution, e.Err}
	}
	return []error{ErrResolution}
}

// Resolve determines the runtime binary for the repository rooted at root.
//
// The sentinel file takes precedence over the default name. A missing
// sentinel selects the default; a sentinel that exists but is empty after
// trimming is treated as an explicit error, since it can only be the
// residue of a broken provisioning step.
func Resolve(root string) (Runtime, error) {
	path := filepath.Join(root, SentinelFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Runtime{Binary: DefaultBinary, Source: SourceDefault}, nil
	}
	if err != nil {
		return Runtime{}, &ResolutionError{Path: path, Reason: "sentinel unreadable", Err: err}
	}

	binary := strings.TrimSpace(string(data))
	if binary == "" {
		return Runtime{}, &ResolutionError{Path: path, Reason: "sentinel is empty"}
	}

	return Runtime{Binary: binary, Source: SourceSentinel}, nil
}

// String returns the binary name, for logging.
func (r Runtime) String() string { return r.Binary }
