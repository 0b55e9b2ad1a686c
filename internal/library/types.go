// Package library holds the read-only process library: the task and
// decision definitions for one manufacturing process domain, plus the
// declarative routing overrides that rewire multi-path decision outcomes.
//
// The library is loaded once (from a YAML document or from the embedded
// seed) and never mutated afterwards. Per-client state lives elsewhere.
package library

import "strings"

// RuntimePrefix marks gating decision ids that represent runtime
// conditions (exception branches) rather than client configuration.
// Tasks gated by such a decision are structurally always-on.
const RuntimePrefix = "RT-"

// OutcomeDelimiter separates alternatives in a multi-valued
// RequiredOutcome ("A, B" means the answer may be A or B).
const OutcomeDelimiter = ","

// TaskKind classifies a process step.
type TaskKind string

const (
	KindMacro     TaskKind = "macro"
	KindMicro     TaskKind = "micro"
	KindLoopStart TaskKind = "loop_start"
	KindLoopEnd   TaskKind = "loop_end"
)

// EdgeKind classifies how a task connects to its predecessors.
type EdgeKind string

const (
	EdgeNormal    EdgeKind = "normal"
	EdgeException EdgeKind = "exception"
)

// Task is one immutable process step definition.
//
// Predecessors carry OR-semantics: the task connects if any listed
// predecessor survives filtering. PairedLoopStartID is set only on
// loop_end tasks and names the loop_start that opens the iteration.
type Task struct {
	ID                string   `yaml:"id"`
	ParentID          string   `yaml:"parent_id,omitempty"`
	Name              string   `yaml:"name"`
	Kind              TaskKind `yaml:"kind"`
	Stage             string   `yaml:"stage"`
	Predecessors      []string `yaml:"predecessors,omitempty"`
	EdgeKind          EdgeKind `yaml:"edge_kind,omitempty"`
	GuardCondition    string   `yaml:"guard_condition,omitempty"`
	GatingDecisionID  string   `yaml:"gating_decision_id,omitempty"`
	RequiredOutcome   string   `yaml:"required_outcome,omitempty"`
	LoopKey           string   `yaml:"loop_key,omitempty"`
	LoopExitCondition string   `yaml:"loop_exit_condition,omitempty"`
	PairedLoopStartID string   `yaml:"paired_loop_start_id,omitempty"`
}

// RuntimeGated reports whether the task's gate is a runtime condition.
func (t Task) RuntimeGated() bool {
	return strings.HasPrefix(t.GatingDecisionID, RuntimePrefix)
}

// RequiredOutcomes returns the set of acceptable answers for the gate.
// A multi-valued RequiredOutcome is split on the delimiter and trimmed;
// a single value is returned as-is. The asymmetry matters: single
// values are matched without trimming (see flow.Include).
func (t Task) RequiredOutcomes() []string {
	if !strings.Contains(t.RequiredOutcome, OutcomeDelimiter) {
		return []string{t.RequiredOutcome}
	}
	parts := strings.Split(t.RequiredOutcome, OutcomeDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// DecisionCategory separates configuration-time choices from
// always-rendered runtime conditions.
type DecisionCategory string

const (
	CategoryPractice DecisionCategory = "practice"
	CategoryRuntime  DecisionCategory = "runtime"
)

// Decision is one immutable configuration question.
type Decision struct {
	ID       string           `yaml:"id"`
	Category DecisionCategory `yaml:"category"`
	Question string           `yaml:"question"`
	Outcomes []string         `yaml:"outcomes"`
	Stage    string           `yaml:"stage,omitempty"`
	Affects  string           `yaml:"affects,omitempty"`
	Notes    string           `yaml:"notes,omitempty"`
}

// HasOutcome reports whether the outcome is in the decision's allowed set.
func (d Decision) HasOutcome(outcome string) bool {
	for _, o := range d.Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// Branch is one labeled edge out of a synthesized routing decision node.
type Branch struct {
	TargetID string `yaml:"target_id"`
	Label    string `yaml:"label"`
}

// RouteOverride declares manual edge wiring for one decision outcome:
// when the client's answer for DecisionID equals Outcome, the default
// predecessor edges into SuppressedHeads are dropped and a routing
// decision node is synthesized after JunctionTaskID, with one labeled
// edge per Branch.
type RouteOverride struct {
	DecisionID      string   `yaml:"decision_id"`
	Outcome         string   `yaml:"outcome"`
	JunctionTaskID  string   `yaml:"junction_task_id"`
	SuppressedHeads []string `yaml:"suppressed_heads"`
	Branches        []Branch `yaml:"branches"`
}
