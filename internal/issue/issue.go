// SPDX-License-Identifier: MPL-2.0

// Package issue maps the orchestrator's failure taxonomy to actionable,
// terminal-rendered guidance. The underlying tool's own diagnostics are
// never translated or replaced; an issue is printed in addition, to tell
// the user what to try next.
package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a known issue.
type Id int

const (
	// RuntimeResolutionFailedId covers ResolutionError from the sage package.
	RuntimeResolutionFailedId Id = iota + 1
	// RepositoryStateFailedId covers RepositoryStateError from gitstate.
	RepositoryStateFailedId
	// TaskNotFoundId covers an unknown task name or prerequisite.
	TaskNotFoundId
	// ContainerEngineNotFoundId covers a missing or unreachable engine.
	ContainerEngineNotFoundId
	// ArtifactRemovalFailedId covers clean failures other than absence.
	ArtifactRemovalFailedId
	// ConfigLoadFailedId covers configuration loading failures.
	ConfigLoadFailedId
)

type (
	// MarkdownMsg is markdown text rendered for the terminal.
	MarkdownMsg string

	// Issue pairs an identified failure with guidance for the user.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw markdown guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Render renders the guidance for the terminal.
func (i *Issue) Render() (string, error) {
	return render(string(i.mdMsg), "dark")
}

// render is a seam for tests.
var render = glamour.Render

var registry = map[Id]*Issue{
	RuntimeResolutionFailedId: {
		id: RuntimeResolutionFailedId,
		mdMsg: `
# Cannot resolve the Sage runtime!

The runtime binary could not be determined for this repository.

## Things you can try:
- If a ` + "`SAGE_BIN`" + ` file exists at the repository root, make sure it is
  readable and contains the path to a Sage executable:
~~~
$ cat SAGE_BIN
/opt/sage/sage
~~~
- Delete an empty ` + "`SAGE_BIN`" + ` file to fall back to ` + "`sage`" + ` from PATH.
- Check that ` + "`sage`" + ` is installed and on your PATH:
~~~
$ sage --version
~~~`,
	},
	RepositoryStateFailedId: {
		id: RepositoryStateFailedId,
		mdMsg: `
# Cannot query the repository!

Incremental test selection needs a git repository with a trunk branch.

## Things you can try:
- Run sagemake from inside the project checkout.
- Make sure the trunk branch exists locally:
~~~
$ git branch --list master
~~~
- On a fresh clone, fetch the trunk branch first:
~~~
$ git fetch origin master:master
~~~
- To run everything regardless of changes, use:
~~~
$ sagemake testall
~~~`,
	},
	TaskNotFoundId: {
		id: TaskNotFoundId,
		mdMsg: `
# Unknown task!

The task you named is not in the task table.

## Things you can try:
- List all tasks:
~~~
$ sagemake list
~~~
- Check for typos; task names are lowercase (e.g. ` + "`doc-pdf`" + `, not ` + "`docpdf`" + `).`,
	},
	ContainerEngineNotFoundId: {
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

The container tasks need a working Docker installation.

## Things you can try:
- Install Docker: https://docs.docker.com/get-docker/
- Check that the daemon is running:
~~~
$ docker version
~~~
- Configure a different engine in ` + "`.sagemake.toml`" + `:
~~~toml
container_engine = "docker"
~~~`,
	},
	ArtifactRemovalFailedId: {
		id: ArtifactRemovalFailedId,
		mdMsg: `
# Could not remove generated artifacts!

A clean target failed for a reason other than the artifact being absent
(absent targets are always fine).

## Things you can try:
- Check ownership and permissions of the build outputs; artifacts written
  by a containerized run may belong to another user:
~~~
$ ls -la build/ dist/
~~~
- Remove the offending paths manually, then re-run the clean task.`,
	},
	ConfigLoadFailedId: {
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or parsed.

## Things you can try:
- Validate the TOML syntax of ` + "`.sagemake.toml`" + `.
- When using ` + "`--config`" + `, check that the path exists.
- Run without a config file; every setting has a default.`,
	},
}

// Get returns the issue for id, or nil when the id is unknown.
func Get(id Id) *Issue {
	return registry[id]
}

// All returns every registered issue in ascending id order.
func All() []*Issue {
	ids := maps.Keys(registry)
	slices.Sort(ids)
	issues := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		issues = append(issues, registry[id])
	}
	return issues
}
