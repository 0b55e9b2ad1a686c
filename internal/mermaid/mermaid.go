// Package mermaid renders a compiled workflow graph as Mermaid
// flowchart source. It is strictly a skin: every node and edge comes
// from the compiled graph, and nothing here decides inclusion or
// connectivity.
package mermaid

import (
	"fmt"
	"strings"

	"github.com/gxpkit/batchflow/internal/flow"
)

// Render emits Mermaid flowchart source for a compiled graph. Nodes are
// grouped into one subgraph per stage, in the graph's stage order.
func Render(g *flow.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	byStage := make(map[string][]flow.Node)
	for _, n := range g.Nodes {
		byStage[n.Stage] = append(byStage[n.Stage], n)
	}

	for i, stage := range g.Stages {
		fmt.Fprintf(&b, "    subgraph stage%d[%q]\n", i, stage)
		for _, n := range byStage[stage] {
			b.WriteString("        ")
			b.WriteString(nodeLine(n))
			b.WriteString("\n")
		}
		b.WriteString("    end\n")
	}

	for _, e := range g.Edges {
		b.WriteString("    ")
		b.WriteString(edgeLine(e))
		b.WriteString("\n")
	}

	b.WriteString(styleBlock(g))
	return b.String()
}

// nodeLine renders one node declaration with the shape of its class:
// macro steps double-bordered, loop boundaries circular, decisions as
// diamonds, everything else rectangular.
func nodeLine(n flow.Node) string {
	id := sanitizeID(n.ID)
	label := escapeLabel(n.Label)
	switch n.Class {
	case flow.ClassMacro:
		return fmt.Sprintf("%s[[%q]]", id, label)
	case flow.ClassLoop:
		return fmt.Sprintf("%s((%q))", id, label)
	case flow.ClassDecision:
		return fmt.Sprintf("%s{%q}", id, label)
	case flow.ClassMarker:
		return fmt.Sprintf("%s([%q])", id, label)
	default: // micro, exception
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// edgeLine renders one edge, dashed or solid, with an optional label.
func edgeLine(e flow.Edge) string {
	from := sanitizeID(e.From)
	to := sanitizeID(e.To)
	arrow := "-->"
	if e.Style == flow.StyleDashed {
		arrow = "-.->"
	}
	if e.Label == "" {
		return fmt.Sprintf("%s %s %s", from, arrow, to)
	}
	return fmt.Sprintf("%s %s|%q| %s", from, arrow, escapeLabel(e.Label), to)
}

// styleBlock emits the class definitions and assignments for exception
// and marker nodes. Emitted only when such nodes exist so small graphs
// stay small.
func styleBlock(g *flow.Graph) string {
	var exceptions, markers []string
	for _, n := range g.Nodes {
		switch n.Class {
		case flow.ClassException:
			exceptions = append(exceptions, sanitizeID(n.ID))
		case flow.ClassMarker:
			markers = append(markers, sanitizeID(n.ID))
		}
	}

	var b strings.Builder
	if len(exceptions) > 0 {
		b.WriteString("    classDef exception fill:#fdecea,stroke:#c0392b,stroke-dasharray: 4 3\n")
		fmt.Fprintf(&b, "    class %s exception\n", strings.Join(exceptions, ","))
	}
	if len(markers) > 0 {
		b.WriteString("    classDef marker fill:#eaf2fd,stroke:#2c6fbb\n")
		fmt.Fprintf(&b, "    class %s marker\n", strings.Join(markers, ","))
	}
	return b.String()
}

// sanitizeID maps a task or decision id onto Mermaid's identifier
// alphabet. Distinct library ids stay distinct as long as they differ
// in more than punctuation, which the id conventions guarantee.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// escapeLabel keeps quotes and braces out of label text.
func escapeLabel(label string) string {
	r := strings.NewReplacer(`"`, "'", "{", "(", "}", ")", "|", "/")
	return r.Replace(label)
}
