// SPDX-License-Identifier: MPL-2.0

// Package container builds and runs the project's container image matrix.
// Images come in a host-native variant and a forced-architecture variant
// so that x86_64 images can be produced on arm64 hosts.
package container

import (
	"context"
	"fmt"
	"io"
)

// PlatformAMD64 is the pinned target for the forced-architecture image
// variants, regardless of the host architecture.
const PlatformAMD64 = "linux/amd64"

type (
	// Engine abstracts the container runtime CLI.
	Engine interface {
		// Name returns the engine name (e.g. "docker").
		Name() string
		// Available reports whether the engine can be used on this host.
		Available() bool
		// Build builds an image; a build failure aborts before any run attempt.
		Build(ctx context.Context, opts BuildOptions) error
		// Run launches a container and returns its exit status unchanged.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
		// ImageExists reports whether the image is present locally.
		ImageExists(ctx context.Context, image string) (bool, error)
		// InspectImage returns the engine's JSON description of the image.
		InspectImage(ctx context.Context, image string) (string, error)
		// RemoveImage removes a local image.
		RemoveImage(ctx context.Context, image string, force bool) error
	}

	// BuildOptions parameterizes an image build. The (Tag, Platform) pair is
	// the image platform spec: an empty Platform builds for the host
	// architecture, a non-empty one pins the target explicitly.
	BuildOptions struct {
		// ContextDir is the build context, rooted at the repository.
		ContextDir string
		// Dockerfile is the build description path, relative to ContextDir.
		Dockerfile string
		// Tag is the fixed image name.
		Tag string
		// Platform pins the target architecture (e.g. "linux/amd64").
		Platform string
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
		// NoCache disables the build cache.
		NoCache bool
		// Stdout and Stderr receive the build output.
		Stdout io.Writer
		Stderr io.Writer
	}

	// RunOptions parameterizes a container launch.
	RunOptions struct {
		// Image is the image to run.
		Image string
		// Platform pins the target architecture, mirroring the build.
		Platform string
		// Command overrides the image's default command; when empty the
		// image default (an interactive shell for the project image) runs.
		Command []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env holds KEY=VALUE pairs for the container environment.
		Env []string
		// Volumes are "host:container" bind mounts.
		Volumes []string
		// Interactive keeps stdin open; TTY allocates a pseudo-terminal.
		Interactive bool
		TTY         bool
		// Remove deletes the container after exit.
		Remove bool
		// Stdin, Stdout and Stderr wire the container's streams.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// RunResult carries the container's exit status. A non-zero code is not
	// an error at this layer; it is surfaced verbatim to the caller, which
	// is how CI detects a failed containerized test run.
	RunResult struct {
		ExitCode int
		// Err is set only for infrastructure failures (engine missing,
		// unstartable container, ...).
		Err error
	}

	// EngineNotAvailableError is returned when the configured engine cannot
	// be used on this host.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}

	// UnknownEngineError is returned for an unrecognized engine name in the
	// configuration.
	UnknownEngineError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine %q is not available: %s", e.Engine, e.Reason)
}

// Error implements the error interface.
func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown container engine %q", e.Name)
}

// NewEngine returns the engine selected by name. Only Docker is wired
// today; the indirection keeps Podman support possible without touching
// callers.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", "docker":
		engine := NewDockerEngine()
		if !engine.Available() {
			return nil, &EngineNotAvailableError{Engine: "docker", Reason: "binary not found or daemon unreachable"}
		}
		return engine, nil
	default:
		return nil, &UnknownEngineError{Name: name}
	}
}
