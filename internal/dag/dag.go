// SPDX-License-Identifier: MPL-2.0

// Package dag resolves task prerequisite chains into a topological
// execution order. Prerequisites are declared per task as an explicit
// list; resolution expands the chain for a single target so that every
// transitive prerequisite runs in full, exactly once, before its
// dependents.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError indicates that the prerequisite graph contains a cycle.
	CycleError struct {
		// Cycle holds the tasks still blocked on each other (enough of them
		// to identify the problem, not necessarily the minimal cycle).
		Cycle []string
	}

	// UnknownTaskError indicates that a task names a prerequisite that is
	// not declared in the table.
	UnknownTaskError struct {
		Name string
		// WantedBy is the task that listed Name, empty for the target itself.
		WantedBy string
	}
)

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("prerequisite cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Error implements the error interface.
func (e *UnknownTaskError) Error() string {
	if e.WantedBy == "" {
		return fmt.Sprintf("unknown task %q", e.Name)
	}
	return fmt.Sprintf("unknown task %q (prerequisite of %q)", e.Name, e.WantedBy)
}

// Resolve returns the execution order for target. deps reports the
// declared prerequisites of a task and whether the task exists at all.
//
// The order is computed with Kahn's algorithm over the subgraph reachable
// from target, so it is deterministic: prerequisites appear before their
// dependents, ties break in discovery order, and target is always last.
func Resolve(target string, deps func(name string) ([]string, bool)) ([]string, error) {
	// Collect the reachable subgraph. edges[a] lists tasks that must wait
	// for a; inDegree counts unmet prerequisites per task.
	var nodes []string
	edges := make(map[string][]string)
	inDegree := make(map[string]int)
	discovered := map[string]bool{target: true}

	queue := []string{target}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		nodes = append(nodes, name)

		prereqs, ok := deps(name)
		if !ok {
			wantedBy := ""
			if name != target {
				wantedBy = parentOf(name, target, deps)
			}
			return nil, &UnknownTaskError{Name: name, WantedBy: wantedBy}
		}
		for _, p := range prereqs {
			edges[p] = append(edges[p], name)
			inDegree[name]++
			if !discovered[p] {
				discovered[p] = true
				queue = append(queue, p)
			}
		}
	}

	// Kahn's algorithm; ties break in discovery order.
	var ready []string
	for _, name := range nodes {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	var order []string
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dependent := range edges[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(nodes) {
		var blocked []string
		for _, name := range nodes {
			if inDegree[name] > 0 {
				blocked = append(blocked, name)
			}
		}
		return nil, &CycleError{Cycle: blocked}
	}
	return order, nil
}

// parentOf finds a task reachable from target that lists name as a
// prerequisite, for error reporting only.
func parentOf(name, target string, deps func(string) ([]string, bool)) string {
	seen := map[string]bool{target: true}
	queue := []string{target}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		prereqs, ok := deps(current)
		if !ok {
			continue
		}
		for _, p := range prereqs {
			if p == name {
				return current
			}
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return ""
}
