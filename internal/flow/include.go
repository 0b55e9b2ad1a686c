// Package flow implements the decision-gated workflow core: the
// inclusion filter, the ancestor resolver, the loop pairer, the graph
// compiler and the validator. Everything here is pure: the package
// reads the library and an answer set and produces values, never side
// effects.
package flow

import (
	"strings"

	"github.com/gxpkit/batchflow/internal/library"
)

// Answers maps a decision id to the client's selected outcome. It is
// the only per-client input the core needs; rationale and timestamps
// stay in the answer store.
type Answers map[string]string

// Include decides whether a task survives for the given answers.
//
// Ungated tasks and runtime-gated tasks always survive: runtime gates
// are exception branches that every rendering must show. A practice
// gate with no saved answer excludes the task — that is the normal
// "not configured yet" state, not an error.
//
// Matching asymmetry, kept deliberately: a multi-valued required
// outcome is split and trimmed and the selected outcome is trimmed
// before the membership test, while a single required outcome is
// compared byte-for-byte. Tests pin this down; see the include tests
// before changing it.
func Include(task library.Task, answers Answers) bool {
	if task.GatingDecisionID == "" {
		return true
	}
	if task.RuntimeGated() {
		return true
	}

	selected, answered := answers[task.GatingDecisionID]
	if !answered {
		return false
	}

	// An empty required outcome gates on "was this decided", not on a
	// particular answer: any saved answer satisfies it.
	if task.RequiredOutcome == "" {
		return true
	}

	if strings.Contains(task.RequiredOutcome, library.OutcomeDelimiter) {
		trimmed := strings.TrimSpace(selected)
		for _, want := range task.RequiredOutcomes() {
			if trimmed == want {
				return true
			}
		}
		return false
	}
	return selected == task.RequiredOutcome
}

// IncludedSet applies Include to every task and returns the surviving
// ids.
func IncludedSet(tasks []library.Task, answers Answers) map[string]bool {
	included := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if Include(t, answers) {
			included[t.ID] = true
		}
	}
	return included
}
