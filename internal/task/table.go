// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"fmt"

	"sagemake/internal/container"
	"sagemake/internal/gitstate"
	"sagemake/internal/plan"
)

// Names lists every task in presentation order.
func Names() []string {
	return []string{
		"all", "install", "uninstall", "develop",
		"test", "testfast", "testall", "coverage",
		"doc", "doc-pdf",
		"clean", "clean-doc", "distclean",
		"pytest", "pytest-coverage", "remote-pytest",
		"builddocker", "rundocker", "builddocker-m1", "rundocker-m1",
		"ci",
	}
}

// Table builds the static task table. Bodies close over the runtime and
// configuration through the ExecContext they receive at execution time.
func Table() map[string]*Task {
	tasks := []*Task{
		{
			Name:    "all",
			Summary: "default target: run the branch-appropriate tests",
			Deps:    []string{"test"},
		},
		{
			Name:    "install",
			Summary: "reinstall the package into the runtime from local sources",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary,
					"-python", "-m", "pip", "install", "--upgrade", "--no-index", "-v", ".")
			},
		},
		{
			Name:    "uninstall",
			Summary: "remove the installed package from the runtime",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				// Deliberately run from $HOME, never from inside the source
				// tree: pip must not be left guessing whether the target is
				// the installed package or the checkout next to it.
				script := fmt.Sprintf(`cd "$HOME" && %s -python -m pip uninstall -y %s`,
					quote(ec.Runtime.Binary), quote(ec.Config.Package))
				return Shell(ctx, ec, "", script)
			},
		},
		{
			Name:    "develop",
			Summary: "install the package in editable mode",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary,
					"-python", "-m", "pip", "install", "--no-index", "-v", "-e", ".")
			},
		},
		{
			Name:    "test",
			Summary: "full suite on trunk, changed files elsewhere",
			Deps:    []string{"install"},
			Run:     runBranchTests,
		},
		{
			Name:    "testfast",
			Summary: "parallel test driver without reinstalling",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary, "-t", "-p", "4", ec.Config.Package)
			},
		},
		{
			Name:    "testall",
			Summary: "full test driver regardless of branch",
			Deps:    []string{"install"},
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary, "-t", ec.Config.Package)
			},
		},
		{
			Name:    "coverage",
			Summary: "doctest coverage over the package tree",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary, "--coverage", ec.Config.Package+"/")
			},
		},
		{
			Name:    "doc",
			Summary: "build the HTML documentation",
			Deps:    []string{"install"},
			Run:     docTask("html"),
		},
		{
			Name:    "doc-pdf",
			Summary: "build the PDF documentation",
			Deps:    []string{"install"},
			Run:     docTask("latexpdf"),
		},
		{
			Name:    "clean",
			Summary: "remove build outputs, compiled extensions, bytecode caches",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				if res := removePaths(ec,
					"build", "dist",
					ec.Config.Package+".egg-info",
					".pytest_cache", ".coverage",
				); res.Failed() {
					return res
				}
				return removeByName(ec, []string{"__pycache__"}, []string{".so", ".pyc"})
			},
		},
		{
			Name:    "clean-doc",
			Summary: "remove generated documentation",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return removePaths(ec,
					ec.Config.DocsDir+"/build",
					ec.Config.DocsDir+"/references",
				)
			},
		},
		{
			Name:    "distclean",
			Summary: "clean everything, including vendored runtime installs",
			Deps:    []string{"clean", "clean-doc"},
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return removePaths(ec, "local", "upstream")
			},
		},
		{
			Name:    "pytest",
			Summary: "run the pytest suite inside the runtime",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary,
					"-python", "-m", "pytest", "-v", "tests/")
			},
		},
		{
			Name:    "pytest-coverage",
			Summary: "pytest with coverage instrumentation",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary,
					"-python", "-m", "pytest", "-v", "--cov="+ec.Config.Package, "tests/")
			},
		},
		{
			Name:    "remote-pytest",
			Summary: "pytest distributed across workers",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return Exec(ctx, ec, "", ec.Runtime.Binary,
					"-python", "-m", "pytest", "-v", "-n", "auto", "--dist", "loadfile", "tests/")
			},
		},
		{
			Name:    "builddocker",
			Summary: "build the project image for the host architecture",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return buildImage(ctx, ec, "")
			},
		},
		{
			Name:    "rundocker",
			Summary: "interactive container with the working tree mounted",
			Deps:    []string{"builddocker"},
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return runMountedContainer(ctx, ec, "")
			},
		},
		{
			Name:    "builddocker-m1",
			Summary: "build the image pinned to x86_64, for arm64 hosts",
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return buildImage(ctx, ec, container.PlatformAMD64)
			},
		},
		{
			Name:    "rundocker-m1",
			Summary: "interactive x86_64 container with the working tree mounted",
			Deps:    []string{"builddocker-m1"},
			Run: func(ctx context.Context, ec *ExecContext) *Result {
				return runMountedContainer(ctx, ec, container.PlatformAMD64)
			},
		},
		{
			Name:    "ci",
			Summary: "build the image, inspect it, and run the containerized test suite",
			Deps:    []string{"builddocker"},
			Run:     runCITests,
		},
	}

	table := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		table[t.Name] = t
	}
	return table
}

// runBranchTests implements the default test task: the branch policy
// decides between the full suite and the changed-file subset. An empty
// subset is an explicit success with zero tests executed, never a silent
// fallback to the full suite.
func runBranchTests(ctx context.Context, ec *ExecContext) *Result {
	cfg := ec.Config

	branch, err := gitstate.CurrentBranch(cfg.RepoRoot)
	if err != nil {
		return NewErrorResult(1, err)
	}
	ec.Branch = branch

	var changed []string
	if branch != cfg.TrunkBranch {
		changed, err = gitstate.Detect(cfg.RepoRoot, cfg.TrunkBranch, cfg.SourceExt)
		if err != nil {
			return NewErrorResult(1, err)
		}
	}

	testPlan := plan.Select(branch, cfg.TrunkBranch, changed)
	ec.PlanNote = testPlan.String()

	switch testPlan.Kind {
	case plan.KindFullSuite:
		ec.Logger.Info("running full test suite", "branch", branch, "target", cfg.FullSuiteTarget())
		return Exec(ctx, ec, "", ec.Runtime.Binary, "-t", cfg.FullSuiteTarget())
	default:
		if len(testPlan.Files) == 0 {
			ec.Logger.Info("no package source changes against trunk; nothing to test", "branch", branch)
			return NewSuccessResult()
		}
		ec.Logger.Info("testing changed files", "branch", branch, "files", len(testPlan.Files))
		argv := append([]string{ec.Runtime.Binary, "-t"}, testPlan.Files...)
		return Exec(ctx, ec, "", argv...)
	}
}

// docTask builds the documentation in the runtime's shell context: first
// the structure generator, then the sphinx build variant.
func docTask(variant string) func(ctx context.Context, ec *ExecContext) *Result {
	return func(ctx context.Context, ec *ExecContext) *Result {
		bin := quote(ec.Runtime.Binary)
		apidoc := fmt.Sprintf("%s -sh -c %s", bin,
			quote(fmt.Sprintf("sphinx-apidoc -o %s/references %s", ec.Config.DocsDir, ec.Config.Package)))
		if res := Shell(ctx, ec, "", apidoc); res.Failed() {
			return res
		}
		build := fmt.Sprintf("%s -sh -c %s", bin, quote("make "+variant))
		return Shell(ctx, ec, ec.Config.DocsDir, build)
	}
}

func buildImage(ctx context.Context, ec *ExecContext, platform string) *Result {
	engine, err := ec.ContainerEngine()
	if err != nil {
		return NewErrorResult(1, err)
	}
	ec.Logger.Info("building image", "tag", ec.Config.ImageName, "platform", platformLabel(platform))
	err = engine.Build(ctx, container.BuildOptions{
		ContextDir: ec.Config.RepoRoot,
		Dockerfile: ec.Config.Dockerfile,
		Tag:        ec.Config.ImageName,
		Platform:   platform,
		Stdout:     ec.Stdout,
		Stderr:     ec.Stderr,
	})
	if err != nil {
		return NewErrorResult(1, err)
	}
	return NewSuccessResult()
}

func runMountedContainer(ctx context.Context, ec *ExecContext, platform string) *Result {
	engine, err := ec.ContainerEngine()
	if err != nil {
		return NewErrorResult(1, err)
	}
	result, err := engine.Run(ctx, container.RunOptions{
		Image:       ec.Config.ImageName,
		Platform:    platform,
		WorkDir:     ec.Config.MountPath,
		Volumes:     []string{ec.Config.RepoRoot + ":" + ec.Config.MountPath},
		Interactive: true,
		TTY:         true,
		Remove:      true,
		Stdin:       ec.Stdin,
		Stdout:      ec.Stdout,
		Stderr:      ec.Stderr,
	})
	if err != nil {
		return NewErrorResult(1, err)
	}
	if result.Err != nil {
		return NewErrorResult(result.ExitCode, result.Err)
	}
	return &Result{ExitCode: result.ExitCode}
}

// runCITests mirrors the trunk-push pipeline: the freshly built image is
// inspected, then the test suite runs in a batch container. The pipeline
// status is exactly the container's exit status.
func runCITests(ctx context.Context, ec *ExecContext) *Result {
	engine, err := ec.ContainerEngine()
	if err != nil {
		return NewErrorResult(1, err)
	}

	inspect, err := engine.InspectImage(ctx, ec.Config.ImageName)
	if err != nil {
		return NewErrorResult(1, err)
	}
	fmt.Fprintln(ec.Stdout, inspect)

	command := ec.Config.CICommand
	if len(command) == 0 {
		command = []string{"sage", "-t", ec.Config.Package}
	}
	ec.Logger.Info("running containerized tests", "image", ec.Config.ImageName, "command", command)

	result, err := engine.Run(ctx, container.RunOptions{
		Image:   ec.Config.ImageName,
		Command: command,
		Remove:  true,
		Stdout:  ec.Stdout,
		Stderr:  ec.Stderr,
	})
	if err != nil {
		return NewErrorResult(1, err)
	}
	if result.Err != nil {
		return NewErrorResult(result.ExitCode, result.Err)
	}
	return &Result{ExitCode: result.ExitCode}
}

func platformLabel(platform string) string {
	if platform == "" {
		return "host"
	}
	return platform
}
