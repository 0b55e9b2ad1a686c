package flow

import (
	"fmt"
	"strings"

	"github.com/gxpkit/batchflow/internal/library"
)

// NodeClass selects the render treatment for a node.
type NodeClass string

const (
	ClassMacro     NodeClass = "macro"
	ClassMicro     NodeClass = "micro"
	ClassLoop      NodeClass = "loop"
	ClassException NodeClass = "exception"
	ClassDecision  NodeClass = "decision"
	// ClassMarker is used only by the annotated overlay for start and
	// finish markers; it never appears in a plain compilation.
	ClassMarker NodeClass = "marker"
)

// EdgeStyle selects the stroke used when rendering an edge.
type EdgeStyle string

const (
	StyleSolid  EdgeStyle = "solid"
	StyleDashed EdgeStyle = "dashed"
)

// Node is one vertex of a compiled graph.
type Node struct {
	ID    string
	Label string
	Class NodeClass
	Stage string
}

// Edge is one directed connection between two nodes.
type Edge struct {
	From  string
	To    string
	Label string
	Style EdgeStyle
}

// Graph is the result of one compilation: nodes in emission order,
// edges in emission order, and the stage order used for layout
// grouping. It is owned by the caller and never mutated by the core.
type Graph struct {
	Domain string
	Nodes  []Node
	Edges  []Edge
	Stages []string
}

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasEdge reports whether an edge from one node to another exists,
// regardless of label or style.
func (g *Graph) HasEdge(from, to string) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Options control one compile call.
type Options struct {
	// Stage restricts compilation to one stage; empty compiles all.
	Stage string
	// Annotated overlays the narrative skin (start/finish markers,
	// branch callouts) on top of the compiled connectivity.
	Annotated bool
}

// maxGuardLabel bounds the label text on synthesized decision nodes.
// Longer guard texts fall back to the decision id.
const maxGuardLabel = 48

// Compile turns the library plus one client's answers into a complete
// node/edge graph. It never fails: a task left without any resolvable
// predecessor simply has no incoming edge, which Validate reports as an
// orphan. Compiling twice with the same inputs yields an identical
// graph.
func Compile(lib *library.Library, answers Answers, opts Options) *Graph {
	c := &compilation{
		lib:      lib,
		answers:  answers,
		graph:    &Graph{Domain: lib.Domain},
		decision: make(map[string]string),
		seenEdge: make(map[Edge]bool),
	}

	tasks := lib.TasksByStage(opts.Stage)
	c.included = IncludedSet(tasks, answers)
	for _, t := range tasks {
		if c.included[t.ID] {
			c.surviving = append(c.surviving, t)
		}
	}

	c.emitNodes()
	c.applyRouting()
	c.emitEdges()
	c.emitLoopBackEdges()

	if opts.Annotated {
		annotate(c.graph)
	}
	return c.graph
}

// compilation carries the working state of one Compile call.
type compilation struct {
	lib       *library.Library
	answers   Answers
	included  map[string]bool
	surviving []library.Task
	graph     *Graph

	// decision memoizes synthesized decision nodes by gating decision
	// id, so a runtime condition shared by several tasks renders once.
	decision map[string]string
	// suppressed heads lose their default predecessor edges because an
	// active routing override wires them explicitly.
	suppressed map[string]bool
	seenEdge   map[Edge]bool
}

// applyRouting matches the library's routing overrides against the
// answers and wires the active ones: a routing decision node after the
// junction task, one labeled edge per declared branch, and suppression
// of the default edges into the branch heads.
func (c *compilation) applyRouting() {
	c.suppressed = make(map[string]bool)
	for _, r := range c.lib.Routing() {
		if c.answers[r.DecisionID] != r.Outcome {
			continue
		}
		if !c.included[r.JunctionTaskID] {
			continue
		}
		for _, h := range r.SuppressedHeads {
			c.suppressed[h] = true
		}

		junction, _ := c.lib.Task(r.JunctionTaskID)
		nodeID := c.routingNode(r, junction.Stage)
		c.addEdge(Edge{From: r.JunctionTaskID, To: nodeID, Style: StyleSolid})
		for _, b := range r.Branches {
			if !c.included[b.TargetID] {
				continue
			}
			c.addEdge(Edge{From: nodeID, To: b.TargetID, Label: b.Label, Style: StyleSolid})
		}
	}
}

// routingNode synthesizes (once) the decision node for a routing
// override, labeled with the decision question.
func (c *compilation) routingNode(r library.RouteOverride, stage string) string {
	if id, ok := c.decision[r.DecisionID]; ok {
		return id
	}
	label := r.DecisionID
	if d, ok := c.lib.Decision(r.DecisionID); ok && len(d.Question) <= maxGuardLabel {
		label = d.Question
	}
	id := "route_" + r.DecisionID
	c.graph.Nodes = append(c.graph.Nodes, Node{ID: id, Label: label, Class: ClassDecision, Stage: stage})
	c.decision[r.DecisionID] = id
	c.noteStage(stage)
	return id
}

// emitNodes adds one node per surviving task, classed by kind.
func (c *compilation) emitNodes() {
	for _, t := range c.surviving {
		c.graph.Nodes = append(c.graph.Nodes, Node{
			ID:    t.ID,
			Label: t.Name,
			Class: classOf(t),
			Stage: t.Stage,
		})
		c.noteStage(t.Stage)
	}
}

func classOf(t library.Task) NodeClass {
	switch t.Kind {
	case library.KindMacro:
		return ClassMacro
	case library.KindLoopStart, library.KindLoopEnd:
		return ClassLoop
	default:
		if t.EdgeKind == library.EdgeException {
			return ClassException
		}
		return ClassMicro
	}
}

// emitEdges resolves the incoming edges of every surviving task.
func (c *compilation) emitEdges() {
	for _, t := range c.surviving {
		if c.suppressed[t.ID] {
			continue
		}
		for _, pred := range c.resolvePredecessors(t) {
			c.connect(pred, t)
		}
	}
}

// resolvePredecessors intersects a task's declared predecessors with
// the included set. When every declared predecessor was filtered out,
// the nearest included ancestor substitutes, keeping the graph
// connected across filtered-out spans.
func (c *compilation) resolvePredecessors(t library.Task) []string {
	var valid []string
	for _, p := range t.Predecessors {
		if c.included[p] {
			valid = append(valid, p)
		}
	}
	if valid == nil && len(t.Predecessors) > 0 {
		if ancestor, ok := NearestIncludedAncestor(t, c.lib, c.included); ok {
			valid = []string{ancestor}
		}
	}
	return valid
}

// connect draws the edge(s) from one resolved predecessor into a task.
// Runtime-guarded tasks route through a synthesized decision node; the
// outcome-labeled leg and plain exception edges are dashed.
func (c *compilation) connect(pred string, t library.Task) {
	if t.RuntimeGated() {
		nodeID := c.guardNode(t)
		c.addEdge(Edge{From: pred, To: nodeID, Style: StyleSolid})

		label := t.RequiredOutcome
		if label == "" {
			label = "Yes"
		}
		style := StyleSolid
		if t.EdgeKind == library.EdgeException {
			style = StyleDashed
		}
		c.addEdge(Edge{From: nodeID, To: t.ID, Label: label, Style: style})
		return
	}

	if t.EdgeKind == library.EdgeException {
		c.addEdge(Edge{From: pred, To: t.ID, Label: "exception", Style: StyleDashed})
		return
	}
	c.addEdge(Edge{From: pred, To: t.ID, Style: StyleSolid})
}

// guardNode synthesizes (once per gating decision) the decision node
// for a runtime condition, labeled with the guard text or, when the
// guard is missing or too long, the decision id.
func (c *compilation) guardNode(t library.Task) string {
	if id, ok := c.decision[t.GatingDecisionID]; ok {
		return id
	}
	label := t.GatingDecisionID
	if t.GuardCondition != "" && len(t.GuardCondition) <= maxGuardLabel {
		label = t.GuardCondition
	}
	id := "cond_" + t.GatingDecisionID
	c.graph.Nodes = append(c.graph.Nodes, Node{ID: id, Label: label, Class: ClassDecision, Stage: t.Stage})
	c.decision[t.GatingDecisionID] = id
	c.noteStage(t.Stage)
	return id
}

// emitLoopBackEdges pairs every surviving loop end with its loop start
// and draws the dashed iteration edge back to the first task of the
// loop body.
func (c *compilation) emitLoopBackEdges() {
	for _, t := range c.surviving {
		if t.Kind != library.KindLoopEnd || t.LoopExitCondition == "" {
			continue
		}
		startID, ok := LoopStartOf(t)
		if !ok {
			continue
		}
		bodyID, ok := FirstBodyTask(startID, c.surviving)
		if !ok {
			continue
		}
		c.addEdge(Edge{
			From:  t.ID,
			To:    bodyID,
			Label: normalizeCondition(t.LoopExitCondition),
			Style: StyleDashed,
		})
	}
}

func (c *compilation) addEdge(e Edge) {
	if c.seenEdge[e] {
		return
	}
	c.seenEdge[e] = true
	c.graph.Edges = append(c.graph.Edges, e)
}

func (c *compilation) noteStage(stage string) {
	for _, s := range c.graph.Stages {
		if s == stage {
			return
		}
	}
	c.graph.Stages = append(c.graph.Stages, stage)
}

// normalizeCondition collapses the whitespace of an exit-condition text
// into a single-line edge label.
func normalizeCondition(s string) string {
	return fmt.Sprintf("while %s", strings.Join(strings.Fields(s), " "))
}
