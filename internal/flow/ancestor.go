package flow

import "github.com/gxpkit/batchflow/internal/library"

// NearestIncludedAncestor searches backward from a task whose direct
// predecessors were all filtered out and returns the closest surviving
// ancestor, or ok=false if the reverse-predecessor closure contains no
// included task.
//
// The search is a breadth-first walk seeded with the task's declared
// predecessors. Ties between equally distant ancestors resolve to the
// first one reached in enqueue order, so the declared order of each
// predecessor list is part of the contract: reordering a list can
// change which ancestor is substituted. A visited set guards against
// cyclic or redundant predecessor declarations.
func NearestIncludedAncestor(task library.Task, lib *library.Library, included map[string]bool) (string, bool) {
	queue := make([]string, 0, len(task.Predecessors))
	visited := make(map[string]bool, len(task.Predecessors))
	for _, p := range task.Predecessors {
		if !visited[p] {
			visited[p] = true
			queue = append(queue, p)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if included[id] {
			return id, true
		}
		ancestor, ok := lib.Task(id)
		if !ok {
			continue
		}
		for _, p := range ancestor.Predecessors {
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}
	return "", false
}
