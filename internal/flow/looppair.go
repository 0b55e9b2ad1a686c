package flow

import "github.com/gxpkit/batchflow/internal/library"

// LoopStartOf returns the loop start paired with a loop end task. The
// pairing is carried on the loop end record itself; an unset or
// non-loop task yields ok=false rather than any fallback, so a missing
// pairing can never degenerate into a self-referencing back-edge.
func LoopStartOf(end library.Task) (string, bool) {
	if end.Kind != library.KindLoopEnd || end.PairedLoopStartID == "" {
		return "", false
	}
	return end.PairedLoopStartID, true
}

// FirstBodyTask returns the first task in the given (already filtered)
// set whose predecessor list names the loop start. The scan order is
// the order of the slice, which compilation keeps stable, so the
// back-edge target is deterministic. ok=false means the loop body was
// filtered out entirely.
func FirstBodyTask(loopStartID string, tasks []library.Task) (string, bool) {
	for _, t := range tasks {
		for _, p := range t.Predecessors {
			if p == loopStartID {
				return t.ID, true
			}
		}
	}
	return "", false
}
