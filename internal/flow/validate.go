package flow

import "github.com/gxpkit/batchflow/internal/library"

// Issue severity levels. Informational issues describe repairs the
// compiler already made; warnings describe defects it could not repair.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeOrphan         = "orphan"
	CodeAncestorBridge = "ancestor_bridge"
	CodeLoopIncomplete = "loop_incomplete"
)

// Issue is one advisory finding from Validate. Issues are data, never
// errors: a graph with issues still compiles and renders.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	TaskID   string   `json:"task_id"`
	Detail   string   `json:"detail"`
}

// Validate re-derives the included task set from the same inputs a
// compile call would use and reports structural defects:
//
//   - a task whose declared predecessors were all filtered out gets an
//     informational issue when a distant ancestor bridges the gap, and
//     a warning when no included ancestor exists at all (an orphan);
//   - a loop end whose paired loop start was filtered out gets a
//     warning, since the iteration back-edge has nowhere to land.
//
// Validate never mutates anything and is callable independently of
// compilation.
func Validate(lib *library.Library, answers Answers, stage string) []Issue {
	tasks := lib.TasksByStage(stage)
	included := IncludedSet(tasks, answers)

	var issues []Issue
	for _, t := range tasks {
		if !included[t.ID] {
			continue
		}

		if len(t.Predecessors) > 0 && !anyIncluded(t.Predecessors, included) {
			if ancestor, ok := NearestIncludedAncestor(t, lib, included); ok {
				issues = append(issues, Issue{
					Severity: SeverityInfo,
					Code:     CodeAncestorBridge,
					TaskID:   t.ID,
					Detail:   "all direct predecessors excluded; bridged from ancestor " + ancestor,
				})
			} else {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Code:     CodeOrphan,
					TaskID:   t.ID,
					Detail:   "no included predecessor or ancestor; task has no incoming edge",
				})
			}
		}

		if t.Kind == library.KindLoopEnd {
			startID, ok := LoopStartOf(t)
			if !ok || !included[startID] {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Code:     CodeLoopIncomplete,
					TaskID:   t.ID,
					Detail:   "paired loop start " + t.PairedLoopStartID + " is not included",
				})
			}
		}
	}
	return issues
}

func anyIncluded(ids []string, included map[string]bool) bool {
	for _, id := range ids {
		if included[id] {
			return true
		}
	}
	return false
}
