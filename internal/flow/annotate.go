package flow

// Marker node ids used by the annotated overlay.
const (
	StartMarkerID  = "flow_start"
	FinishMarkerID = "flow_finish"
)

// annotate overlays the narrative skin on a compiled graph. It only
// adds presentation: start and finish markers wired to the graph's
// entry and exit nodes, and a callout prefix on synthesized decision
// nodes. Task inclusion and task-to-task connectivity are untouched —
// the overlay must never carry structural truth of its own.
func annotate(g *Graph) {
	hasIncoming := make(map[string]bool, len(g.Nodes))
	hasOutgoing := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		hasIncoming[e.To] = true
		hasOutgoing[e.From] = true
	}

	for i, n := range g.Nodes {
		if n.Class == ClassDecision {
			g.Nodes[i].Label = "Decision: " + n.Label
		}
	}

	var entries, exits []string
	for _, n := range g.Nodes {
		if n.Class == ClassDecision {
			continue
		}
		if !hasIncoming[n.ID] {
			entries = append(entries, n.ID)
		}
		if !hasOutgoing[n.ID] {
			exits = append(exits, n.ID)
		}
	}
	if len(g.Nodes) == 0 {
		return
	}

	start := Node{ID: StartMarkerID, Label: "Start", Class: ClassMarker, Stage: g.Nodes[0].Stage}
	finish := Node{ID: FinishMarkerID, Label: "Finish", Class: ClassMarker, Stage: g.Nodes[len(g.Nodes)-1].Stage}
	g.Nodes = append([]Node{start}, g.Nodes...)
	g.Nodes = append(g.Nodes, finish)

	for _, id := range entries {
		g.Edges = append(g.Edges, Edge{From: StartMarkerID, To: id, Style: StyleSolid})
	}
	for _, id := range exits {
		g.Edges = append(g.Edges, Edge{From: id, To: FinishMarkerID, Style: StyleSolid})
	}
}
