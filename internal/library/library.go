package library

import (
	"fmt"
	"strings"
)

// Library is the in-memory, read-only view of one process domain.
// Task and decision order follows the source document; all queries that
// return slices preserve that order.
type Library struct {
	Domain    string
	tasks     []Task
	decisions []Decision
	routing   []RouteOverride

	taskByID     map[string]int
	decisionByID map[string]int
}

// Document is the on-disk shape of a process library.
type Document struct {
	Domain    string          `yaml:"domain"`
	Tasks     []Task          `yaml:"tasks"`
	Decisions []Decision      `yaml:"decisions"`
	Routing   []RouteOverride `yaml:"routing,omitempty"`
}

// New builds a Library from a document and checks its invariants.
func New(doc Document) (*Library, error) {
	l := &Library{
		Domain:       doc.Domain,
		tasks:        doc.Tasks,
		decisions:    doc.Decisions,
		routing:      doc.Routing,
		taskByID:     make(map[string]int, len(doc.Tasks)),
		decisionByID: make(map[string]int, len(doc.Decisions)),
	}

	for i, d := range doc.Decisions {
		if d.ID == "" {
			return nil, fmt.Errorf("library: decision %d has no id", i)
		}
		if _, dup := l.decisionByID[d.ID]; dup {
			return nil, fmt.Errorf("library: duplicate decision id %q", d.ID)
		}
		if len(d.Outcomes) == 0 {
			return nil, fmt.Errorf("library: decision %q has no outcomes", d.ID)
		}
		seen := make(map[string]bool, len(d.Outcomes))
		for _, o := range d.Outcomes {
			if seen[o] {
				return nil, fmt.Errorf("library: decision %q repeats outcome %q", d.ID, o)
			}
			seen[o] = true
		}
		l.decisionByID[d.ID] = i
	}

	for i, t := range doc.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("library: task %d has no id", i)
		}
		if _, dup := l.taskByID[t.ID]; dup {
			return nil, fmt.Errorf("library: duplicate task id %q", t.ID)
		}
		l.taskByID[t.ID] = i
	}

	for _, t := range doc.Tasks {
		if err := l.checkTask(t); err != nil {
			return nil, err
		}
	}
	for _, r := range doc.Routing {
		if err := l.checkRoute(r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// checkTask enforces the per-task document invariants.
func (l *Library) checkTask(t Task) error {
	for _, p := range t.Predecessors {
		if _, ok := l.taskByID[p]; !ok {
			return fmt.Errorf("library: task %q names unknown predecessor %q", t.ID, p)
		}
	}

	// A practice gate must reference a known decision, and the required
	// outcome(s) must be members of that decision's outcome set. Runtime
	// gates are structural (always-on) and need no registered decision,
	// though registering one documents the condition.
	if t.GatingDecisionID != "" && !t.RuntimeGated() {
		d, ok := l.Decision(t.GatingDecisionID)
		if !ok {
			return fmt.Errorf("library: task %q gated by unknown decision %q", t.ID, t.GatingDecisionID)
		}
		for _, want := range t.RequiredOutcomes() {
			if want == "" {
				continue
			}
			if !d.HasOutcome(strings.TrimSpace(want)) {
				return fmt.Errorf("library: task %q requires outcome %q not offered by decision %q",
					t.ID, want, d.ID)
			}
		}
	}

	switch t.Kind {
	case KindLoopEnd:
		if t.PairedLoopStartID == "" {
			return fmt.Errorf("library: loop end %q has no paired_loop_start_id", t.ID)
		}
		start, ok := l.Task(t.PairedLoopStartID)
		if !ok {
			return fmt.Errorf("library: loop end %q pairs unknown task %q", t.ID, t.PairedLoopStartID)
		}
		if start.Kind != KindLoopStart {
			return fmt.Errorf("library: loop end %q pairs %q, which is not a loop start", t.ID, start.ID)
		}
	case KindMacro, KindMicro, KindLoopStart:
	default:
		return fmt.Errorf("library: task %q has unknown kind %q", t.ID, t.Kind)
	}
	return nil
}

// checkRoute enforces that a routing override only names known entities.
func (l *Library) checkRoute(r RouteOverride) error {
	d, ok := l.Decision(r.DecisionID)
	if !ok {
		return fmt.Errorf("library: routing override names unknown decision %q", r.DecisionID)
	}
	if !d.HasOutcome(r.Outcome) {
		return fmt.Errorf("library: routing override for %q names outcome %q not offered by the decision",
			r.DecisionID, r.Outcome)
	}
	if _, ok := l.Task(r.JunctionTaskID); !ok {
		return fmt.Errorf("library: routing override for %q names unknown junction %q", r.DecisionID, r.JunctionTaskID)
	}
	for _, h := range r.SuppressedHeads {
		if _, ok := l.Task(h); !ok {
			return fmt.Errorf("library: routing override for %q suppresses unknown task %q", r.DecisionID, h)
		}
	}
	for _, b := range r.Branches {
		if _, ok := l.Task(b.TargetID); !ok {
			return fmt.Errorf("library: routing override for %q branches to unknown task %q", r.DecisionID, b.TargetID)
		}
	}
	return nil
}

// Task looks up one task by id.
func (l *Library) Task(id string) (Task, bool) {
	i, ok := l.taskByID[id]
	if !ok {
		return Task{}, false
	}
	return l.tasks[i], true
}

// Tasks returns all tasks in document order.
func (l *Library) Tasks() []Task {
	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// TasksByStage returns the tasks of one stage in document order.
// An empty stage returns everything.
func (l *Library) TasksByStage(stage string) []Task {
	if stage == "" {
		return l.Tasks()
	}
	var out []Task
	for _, t := range l.tasks {
		if t.Stage == stage {
			out = append(out, t)
		}
	}
	return out
}

// Stages returns the distinct stage names in first-seen order.
func (l *Library) Stages() []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range l.tasks {
		if !seen[t.Stage] {
			seen[t.Stage] = true
			out = append(out, t.Stage)
		}
	}
	return out
}

// Decision looks up one decision by id.
func (l *Library) Decision(id string) (Decision, bool) {
	i, ok := l.decisionByID[id]
	if !ok {
		return Decision{}, false
	}
	return l.decisions[i], true
}

// Decisions returns decisions filtered by stage and category, in
// document order. Empty filters match everything.
func (l *Library) Decisions(stage string, category DecisionCategory) []Decision {
	var out []Decision
	for _, d := range l.decisions {
		if stage != "" && d.Stage != stage {
			continue
		}
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, d)
	}
	return out
}

// AffectedTasks returns the tasks gated by the given decision.
func (l *Library) AffectedTasks(decisionID string) []Task {
	var out []Task
	for _, t := range l.tasks {
		if t.GatingDecisionID == decisionID {
			out = append(out, t)
		}
	}
	return out
}

// Routing returns the declarative routing override table.
func (l *Library) Routing() []RouteOverride {
	out := make([]RouteOverride, len(l.routing))
	copy(out, l.routing)
	return out
}
