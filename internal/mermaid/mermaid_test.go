package mermaid

import (
	"strings"
	"testing"

	"github.com/gxpkit/batchflow/internal/flow"
)

func testGraph() *flow.Graph {
	return &flow.Graph{
		Domain: "Dispensing",
		Stages: []string{"Order handling", "Weighing"},
		Nodes: []flow.Node{
			{ID: "T-ORD-010", Label: "Receive dispensing order", Class: flow.ClassMacro, Stage: "Order handling"},
			{ID: "T-WGH-010", Label: "Start weighing loop", Class: flow.ClassLoop, Stage: "Weighing"},
			{ID: "T-WGH-035", Label: "Escalate balance failure", Class: flow.ClassException, Stage: "Weighing"},
			{ID: "cond_RT-SCALE-01", Label: "Balance check outside tolerance?", Class: flow.ClassDecision, Stage: "Weighing"},
			{ID: "flow_start", Label: "Start", Class: flow.ClassMarker, Stage: "Order handling"},
		},
		Edges: []flow.Edge{
			{From: "T-ORD-010", To: "T-WGH-010"},
			{From: "cond_RT-SCALE-01", To: "T-WGH-035", Label: "Yes", Style: flow.StyleDashed},
		},
	}
}

func TestRenderShapes(t *testing.T) {
	out := Render(testGraph())

	shapes := []struct {
		name string
		want string
	}{
		{"macro", `T_ORD_010[["Receive dispensing order"]]`},
		{"loop", `T_WGH_010(("Start weighing loop"))`},
		{"exception", `T_WGH_035["Escalate balance failure"]`},
		{"decision", `cond_RT_SCALE_01{"Balance check outside tolerance?"}`},
		{"marker", `flow_start(["Start"])`},
	}
	for _, s := range shapes {
		if !strings.Contains(out, s.want) {
			t.Errorf("%s node missing %q in:\n%s", s.name, s.want, out)
		}
	}
}

func TestRenderEdges(t *testing.T) {
	out := Render(testGraph())

	if !strings.Contains(out, "T_ORD_010 --> T_WGH_010") {
		t.Errorf("solid edge missing in:\n%s", out)
	}
	if !strings.Contains(out, `cond_RT_SCALE_01 -.->|"Yes"| T_WGH_035`) {
		t.Errorf("dashed labelled edge missing in:\n%s", out)
	}
}

func TestRenderStageSubgraphs(t *testing.T) {
	out := Render(testGraph())

	first := strings.Index(out, `subgraph stage0["Order handling"]`)
	second := strings.Index(out, `subgraph stage1["Weighing"]`)
	if first < 0 || second < 0 {
		t.Fatalf("stage subgraphs missing in:\n%s", out)
	}
	if second < first {
		t.Errorf("stages out of declared order in:\n%s", out)
	}
}

func TestRenderStyleBlocks(t *testing.T) {
	out := Render(testGraph())

	if !strings.Contains(out, "classDef exception") || !strings.Contains(out, "class T_WGH_035 exception") {
		t.Errorf("exception styling missing in:\n%s", out)
	}
	if !strings.Contains(out, "classDef marker") || !strings.Contains(out, "class flow_start marker") {
		t.Errorf("marker styling missing in:\n%s", out)
	}

	plain := Render(&flow.Graph{
		Domain: "Dispensing",
		Stages: []string{"Order handling"},
		Nodes:  []flow.Node{{ID: "T-ORD-010", Label: "Receive dispensing order", Stage: "Order handling"}},
	})
	if strings.Contains(plain, "classDef") {
		t.Errorf("style block emitted for a graph without styled nodes:\n%s", plain)
	}
}

func TestEscapeLabel(t *testing.T) {
	g := testGraph()
	g.Nodes[0].Label = `Check "tare" weight {net|gross}`
	out := Render(g)

	if !strings.Contains(out, `T_ORD_010[["Check 'tare' weight (net/gross)"]]`) {
		t.Errorf("label not escaped in:\n%s", out)
	}
}
