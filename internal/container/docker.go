// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

type (
	// ExecCommandFunc creates the exec.Cmd for an engine invocation. It
	// exists so tests can intercept the CLI calls.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// DockerEngine drives the Docker CLI.
	DockerEngine struct {
		binaryPath  string
		execCommand ExecCommandFunc
	}

	// DockerEngineOption configures a DockerEngine.
	DockerEngineOption func(*DockerEngine)
)

// WithExecCommand overrides how CLI commands are created (tests only).
func WithExecCommand(fn ExecCommandFunc) DockerEngineOption {
	return func(e *DockerEngine) { e.execCommand = fn }
}

// WithBinaryPath overrides the docker binary location.
func WithBinaryPath(path string) DockerEngineOption {
	return func(e *DockerEngine) { e.binaryPath = path }
}

// NewDockerEngine creates a Docker engine, locating the binary via PATH.
func NewDockerEngine(opts ...DockerEngineOption) *DockerEngine {
	path, _ := exec.LookPath("docker")
	engine := &DockerEngine{
		binaryPath:  path,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Name returns the engine name.
func (e *DockerEngine) Name() string { return "docker" }

// Available reports whether the docker binary exists and the daemon answers.
func (e *DockerEngine) Available() bool {
	if e.binaryPath == "" {
		return false
	}
	cmd := e.execCommand(context.Background(), e.binaryPath, "version", "--format", "{{.Server.Version}}")
	return cmd.Run() == nil
}

// BuildArgs assembles the CLI arguments for an image build.
func (e *DockerEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build", "-t", opts.Tag}
	if opts.Dockerfile != "" {
		args = append(args, "-f", opts.Dockerfile)
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	keys := make([]string, 0, len(opts.BuildArgs))
	for k := range opts.BuildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, opts.BuildArgs[k]))
	}
	return append(args, opts.ContextDir)
}

// Build builds an image. Output goes to the writers in opts so the
// underlying tool's diagnostics are preserved untranslated.
func (e *DockerEngine) Build(ctx context.Context, opts BuildOptions) error {
	cmd := e.execCommand(ctx, e.binaryPath, e.BuildArgs(opts)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker build of %q failed: %w", opts.Tag, err)
	}
	return nil
}

// RunArgs assembles the CLI arguments for a container launch.
func (e *DockerEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}
	if opts.Remove {
		args = append(args, "--rm")
	}
	if opts.Interactive {
		args = append(args, "-i")
	}
	if opts.TTY {
		args = append(args, "-t")
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}
	for _, env := range opts.Env {
		args = append(args, "-e", env)
	}
	for _, volume := range opts.Volumes {
		args = append(args, "-v", volume)
	}
	args = append(args, opts.Image)
	return append(args, opts.Command...)
}

// Run launches a container and reports its exit status unchanged.
func (e *DockerEngine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	cmd := e.execCommand(ctx, e.binaryPath, e.RunArgs(opts)...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	err := cmd.Run()
	result := &RunResult{}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Err = err
		}
	}
	return result, nil
}

// ImageExists reports whether the image is present locally.
func (e *DockerEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	cmd := e.execCommand(ctx, e.binaryPath, "image", "inspect", image)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil, nil
}

// InspectImage returns the CLI's JSON description of the image.
func (e *DockerEngine) InspectImage(ctx context.Context, image string) (string, error) {
	cmd := e.execCommand(ctx, e.binaryPath, "image", "inspect", image)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("docker image inspect %q failed: %w", image, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RemoveImage removes a local image.
func (e *DockerEngine) RemoveImage(ctx context.Context, image string, force bool) error {
	args := []string{"rmi"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, image)
	if err := e.execCommand(ctx, e.binaryPath, args...).Run(); err != nil {
		return fmt.Errorf("docker rmi %q failed: %w", image, err)
	}
	return nil
}
