package flow

import (
	"testing"

	"github.com/gxpkit/batchflow/internal/library"
)

// --- Test fixtures ---

// testLibrary builds a small synthetic domain:
//
//	A ── B(Q1=Yes) ── C ── E(Q2 multi) ── F(loop end, paired D)
//	      └─ D(loop start, Q2 multi) ─┘
//	X(RT-guarded exception off C)
func testLibrary(t *testing.T) *library.Library {
	t.Helper()
	lib, err := library.New(library.Document{
		Domain: "test",
		Decisions: []library.Decision{
			{ID: "Q1", Category: library.CategoryPractice, Question: "Use B?", Outcomes: []string{"Yes", "No"}, Stage: "one"},
			{ID: "Q2", Category: library.CategoryPractice, Question: "Which paths?", Outcomes: []string{"Alpha", "Beta", "Both"}, Stage: "two"},
			{ID: "RT-X", Category: library.CategoryRuntime, Question: "Deviation raised?", Outcomes: []string{"Yes", "No"}, Stage: "two"},
		},
		Tasks: []library.Task{
			{ID: "A", Name: "start step", Kind: library.KindMacro, Stage: "one"},
			{ID: "B", Name: "gated step", Kind: library.KindMicro, Stage: "one",
				Predecessors: []string{"A"}, GatingDecisionID: "Q1", RequiredOutcome: "Yes"},
			{ID: "C", Name: "junction step", Kind: library.KindMicro, Stage: "two",
				Predecessors: []string{"B"}},
			{ID: "D", Name: "loop open", Kind: library.KindLoopStart, Stage: "two",
				Predecessors: []string{"C"}, GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both"},
			{ID: "E", Name: "loop body", Kind: library.KindMicro, Stage: "two",
				Predecessors: []string{"D"}, GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both"},
			{ID: "F", Name: "loop close", Kind: library.KindLoopEnd, Stage: "two",
				Predecessors: []string{"E"}, GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both",
				LoopExitCondition: "items  remain", PairedLoopStartID: "D"},
			{ID: "X", Name: "deviation branch", Kind: library.KindMicro, Stage: "two",
				Predecessors: []string{"C"}, EdgeKind: library.EdgeException,
				GatingDecisionID: "RT-X", GuardCondition: "Deviation raised?", RequiredOutcome: "Yes"},
		},
	})
	if err != nil {
		t.Fatalf("building test library: %v", err)
	}
	return lib
}

// --- Include ---

func TestInclude(t *testing.T) {
	tests := []struct {
		name    string
		task    library.Task
		answers Answers
		want    bool
	}{
		{
			name: "ungated task always included",
			task: library.Task{ID: "T"},
			want: true,
		},
		{
			name:    "ungated task included with unrelated answers",
			task:    library.Task{ID: "T"},
			answers: Answers{"Q1": "No"},
			want:    true,
		},
		{
			name: "runtime gate always included without answers",
			task: library.Task{ID: "T", GatingDecisionID: "RT-X", RequiredOutcome: "Yes"},
			want: true,
		},
		{
			name:    "runtime gate included even when answered against it",
			task:    library.Task{ID: "T", GatingDecisionID: "RT-X", RequiredOutcome: "Yes"},
			answers: Answers{"RT-X": "No"},
			want:    true,
		},
		{
			name: "unanswered practice gate excludes",
			task: library.Task{ID: "T", GatingDecisionID: "Q1", RequiredOutcome: "Yes"},
			want: false,
		},
		{
			name:    "matching single outcome includes",
			task:    library.Task{ID: "T", GatingDecisionID: "Q1", RequiredOutcome: "Yes"},
			answers: Answers{"Q1": "Yes"},
			want:    true,
		},
		{
			name:    "mismatched single outcome excludes",
			task:    library.Task{ID: "T", GatingDecisionID: "Q1", RequiredOutcome: "Yes"},
			answers: Answers{"Q1": "No"},
			want:    false,
		},
		{
			// Single-outcome match is byte-for-byte: a padded answer
			// does not match. Pinned legacy behavior — see the multi
			// cases below for the asymmetry.
			name:    "single outcome is not trimmed",
			task:    library.Task{ID: "T", GatingDecisionID: "Q1", RequiredOutcome: "Yes"},
			answers: Answers{"Q1": " Yes "},
			want:    false,
		},
		{
			name:    "multi outcome matches first candidate",
			task:    library.Task{ID: "T", GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both"},
			answers: Answers{"Q2": "Alpha"},
			want:    true,
		},
		{
			name:    "multi outcome matches second candidate",
			task:    library.Task{ID: "T", GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both"},
			answers: Answers{"Q2": "Both"},
			want:    true,
		},
		{
			name:    "multi outcome trims the selected answer",
			task:    library.Task{ID: "T", GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both"},
			answers: Answers{"Q2": " Alpha "},
			want:    true,
		},
		{
			name:    "empty required outcome accepts any saved answer",
			task:    library.Task{ID: "T", GatingDecisionID: "Q1"},
			answers: Answers{"Q1": "Yes"},
			want:    true,
		},
		{
			name: "empty required outcome still excludes when unanswered",
			task: library.Task{ID: "T", GatingDecisionID: "Q1"},
			want: false,
		},
		{
			name:    "multi outcome rejects non-member",
			task:    library.Task{ID: "T", GatingDecisionID: "Q2", RequiredOutcome: "Alpha, Both"},
			answers: Answers{"Q2": "Beta"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Include(tt.task, tt.answers); got != tt.want {
				t.Errorf("Include() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- NearestIncludedAncestor ---

func TestNearestIncludedAncestor(t *testing.T) {
	lib := testLibrary(t)

	t.Run("skips one excluded hop", func(t *testing.T) {
		// B excluded: C's nearest included ancestor is A.
		included := map[string]bool{"A": true, "C": true}
		task, _ := lib.Task("C")
		got, ok := NearestIncludedAncestor(task, lib, included)
		if !ok || got != "A" {
			t.Fatalf("NearestIncludedAncestor = %q, %v; want A, true", got, ok)
		}
	})

	t.Run("returns nothing when closure has no included task", func(t *testing.T) {
		included := map[string]bool{"C": true}
		task, _ := lib.Task("C")
		if got, ok := NearestIncludedAncestor(task, lib, included); ok {
			t.Fatalf("expected no ancestor, got %q", got)
		}
	})

	t.Run("result is always a member of the included set", func(t *testing.T) {
		included := map[string]bool{"A": true}
		for _, task := range lib.Tasks() {
			got, ok := NearestIncludedAncestor(task, lib, included)
			if ok && !included[got] {
				t.Errorf("task %s: ancestor %q not in included set", task.ID, got)
			}
		}
	})

	t.Run("declared predecessor order breaks ties", func(t *testing.T) {
		tieLib, err := library.New(library.Document{
			Domain: "tie",
			Tasks: []library.Task{
				{ID: "L", Name: "left", Kind: library.KindMicro, Stage: "s"},
				{ID: "R", Name: "right", Kind: library.KindMicro, Stage: "s"},
				{ID: "M", Name: "merge", Kind: library.KindMicro, Stage: "s", Predecessors: []string{"R", "L"}},
			},
		})
		if err != nil {
			t.Fatalf("building tie library: %v", err)
		}
		included := map[string]bool{"L": true, "R": true, "M": true}
		task, _ := tieLib.Task("M")
		// Both are distance 1; the first in declared order wins.
		if got, _ := NearestIncludedAncestor(task, tieLib, included); got != "R" {
			t.Errorf("tie-break = %q, want R (first declared)", got)
		}
	})

	t.Run("survives predecessor cycles", func(t *testing.T) {
		cycLib, err := library.New(library.Document{
			Domain: "cycle",
			Tasks: []library.Task{
				{ID: "P", Name: "p", Kind: library.KindMicro, Stage: "s", Predecessors: []string{"Q"}},
				{ID: "Q", Name: "q", Kind: library.KindMicro, Stage: "s", Predecessors: []string{"P"}},
			},
		})
		if err != nil {
			t.Fatalf("building cyclic library: %v", err)
		}
		task, _ := cycLib.Task("P")
		if got, ok := NearestIncludedAncestor(task, cycLib, map[string]bool{}); ok {
			t.Fatalf("expected termination with no ancestor, got %q", got)
		}
	})
}

// --- Loop pairing ---

func TestLoopStartOf(t *testing.T) {
	lib := testLibrary(t)

	end, _ := lib.Task("F")
	start, ok := LoopStartOf(end)
	if !ok || start != "D" {
		t.Fatalf("LoopStartOf(F) = %q, %v; want D, true", start, ok)
	}

	// No silent self-loop: a task without a pairing yields ok=false.
	if _, ok := LoopStartOf(library.Task{ID: "Z", Kind: library.KindLoopEnd}); ok {
		t.Error("unpaired loop end should not resolve")
	}
	if _, ok := LoopStartOf(library.Task{ID: "Z", Kind: library.KindMicro, PairedLoopStartID: "D"}); ok {
		t.Error("non-loop-end task should not resolve")
	}
}

func TestFirstBodyTask(t *testing.T) {
	lib := testLibrary(t)

	body, ok := FirstBodyTask("D", lib.Tasks())
	if !ok || body != "E" {
		t.Fatalf("FirstBodyTask(D) = %q, %v; want E, true", body, ok)
	}

	if _, ok := FirstBodyTask("D", nil); ok {
		t.Error("empty task set should yield no body task")
	}
}
