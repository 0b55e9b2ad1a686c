package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeed(t *testing.T) {
	lib := Seed()

	if lib.Domain != "dispensing" {
		t.Errorf("seed domain = %q", lib.Domain)
	}
	if got := len(lib.Tasks()); got == 0 {
		t.Fatal("seed has no tasks")
	}
	if got := lib.Stages(); len(got) != 3 || got[0] != "Order Intake" {
		t.Errorf("seed stages = %v", got)
	}

	// The weighing loop pair round-trips through its own fields.
	end, ok := lib.Task("T-WGH-040")
	if !ok {
		t.Fatal("seed missing weighing loop end")
	}
	start, ok := lib.Task(end.PairedLoopStartID)
	if !ok || start.Kind != KindLoopStart {
		t.Errorf("weighing loop end pairs %q (%v)", end.PairedLoopStartID, ok)
	}

	if len(lib.Routing()) == 0 {
		t.Error("seed has no routing overrides")
	}
}

func TestNew_Invariants(t *testing.T) {
	base := func() Document {
		return Document{
			Domain: "d",
			Decisions: []Decision{
				{ID: "Q1", Category: CategoryPractice, Question: "?", Outcomes: []string{"Yes", "No"}},
			},
			Tasks: []Task{
				{ID: "a", Name: "a", Kind: KindMicro, Stage: "s"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Document)
		wantErr string
	}{
		{
			name:   "valid document",
			mutate: func(d *Document) {},
		},
		{
			name: "duplicate task id",
			mutate: func(d *Document) {
				d.Tasks = append(d.Tasks, Task{ID: "a", Name: "dup", Kind: KindMicro, Stage: "s"})
			},
			wantErr: "duplicate task id",
		},
		{
			name: "duplicate decision id",
			mutate: func(d *Document) {
				d.Decisions = append(d.Decisions, Decision{ID: "Q1", Question: "?", Outcomes: []string{"X"}})
			},
			wantErr: "duplicate decision id",
		},
		{
			name: "decision without outcomes",
			mutate: func(d *Document) {
				d.Decisions[0].Outcomes = nil
			},
			wantErr: "no outcomes",
		},
		{
			name: "unknown predecessor",
			mutate: func(d *Document) {
				d.Tasks[0].Predecessors = []string{"ghost"}
			},
			wantErr: "unknown predecessor",
		},
		{
			name: "gate references unknown decision",
			mutate: func(d *Document) {
				d.Tasks[0].GatingDecisionID = "Q9"
				d.Tasks[0].RequiredOutcome = "Yes"
			},
			wantErr: "unknown decision",
		},
		{
			name: "required outcome outside decision outcomes",
			mutate: func(d *Document) {
				d.Tasks[0].GatingDecisionID = "Q1"
				d.Tasks[0].RequiredOutcome = "Maybe"
			},
			wantErr: "not offered",
		},
		{
			name: "multi-valued required outcome is checked per member",
			mutate: func(d *Document) {
				d.Tasks[0].GatingDecisionID = "Q1"
				d.Tasks[0].RequiredOutcome = "Yes, Maybe"
			},
			wantErr: "not offered",
		},
		{
			name: "runtime gate needs no registered decision",
			mutate: func(d *Document) {
				d.Tasks[0].GatingDecisionID = "RT-GHOST"
				d.Tasks[0].RequiredOutcome = "Yes"
			},
		},
		{
			name: "loop end without pairing",
			mutate: func(d *Document) {
				d.Tasks = append(d.Tasks, Task{ID: "end", Name: "end", Kind: KindLoopEnd, Stage: "s"})
			},
			wantErr: "paired_loop_start_id",
		},
		{
			name: "loop end paired to non-loop-start",
			mutate: func(d *Document) {
				d.Tasks = append(d.Tasks, Task{ID: "end", Name: "end", Kind: KindLoopEnd, Stage: "s", PairedLoopStartID: "a"})
			},
			wantErr: "not a loop start",
		},
		{
			name: "routing override with foreign outcome",
			mutate: func(d *Document) {
				d.Routing = []RouteOverride{{DecisionID: "Q1", Outcome: "Maybe", JunctionTaskID: "a"}}
			},
			wantErr: "not offered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base()
			tt.mutate(&doc)
			_, err := New(doc)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.yaml")

	doc := `
domain: mini
decisions:
  - id: Q1
    category: practice
    question: "Use the optional step?"
    outcomes: ["Yes", "No"]
tasks:
  - id: t1
    name: "first"
    kind: macro
    stage: "only"
  - id: t2
    name: "optional"
    kind: micro
    stage: "only"
    predecessors: [t1]
    gating_decision_id: Q1
    required_outcome: "Yes"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	lib, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if lib.Domain != "mini" {
		t.Errorf("domain = %q", lib.Domain)
	}
	task, ok := lib.Task("t2")
	if !ok || task.GatingDecisionID != "Q1" {
		t.Errorf("t2 = %+v, ok=%v", task, ok)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestQueries(t *testing.T) {
	lib := Seed()

	practice := lib.Decisions("", CategoryPractice)
	for _, d := range practice {
		if d.Category != CategoryPractice {
			t.Errorf("category filter leaked %s", d.ID)
		}
	}

	staged := lib.Decisions("Dispensing", "")
	for _, d := range staged {
		if d.Stage != "Dispensing" {
			t.Errorf("stage filter leaked %s", d.ID)
		}
	}

	affected := lib.AffectedTasks("Q-SEC-01")
	if len(affected) != 8 {
		t.Errorf("Q-SEC-01 affects %d tasks, want 8", len(affected))
	}

	if _, ok := lib.Decision("Q-NOPE"); ok {
		t.Error("unknown decision lookup should fail")
	}
}
