package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/gxpkit/batchflow/internal/library"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListDecisionsTool handles flow_list_decisions: a pure read over the
// decision library with optional stage and category filters.
type ListDecisionsTool struct {
	lib *library.Library
}

// NewListDecisionsTool creates a ListDecisionsTool.
func NewListDecisionsTool(lib *library.Library) *ListDecisionsTool {
	return &ListDecisionsTool{lib: lib}
}

// Definition returns the MCP tool definition for registration.
func (t *ListDecisionsTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_list_decisions",
		mcp.WithDescription(
			"List the configuration decisions of the process library. "+
				"Each decision gates one or more workflow tasks; answering them for a client "+
				"determines which tasks appear in the compiled workflow.",
		),
		mcp.WithString("stage",
			mcp.Description("Only decisions of this stage (e.g. 'Dispensing')"),
		),
		mcp.WithString("category",
			mcp.Description("Only decisions of this category: practice or runtime"),
		),
	)
}

// Handle processes the flow_list_decisions tool call.
func (t *ListDecisionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stage := req.GetString("stage", "")
	category := library.DecisionCategory(req.GetString("category", ""))

	decisions := t.lib.Decisions(stage, category)

	var b strings.Builder
	fmt.Fprintf(&b, "# Decisions (%s domain)\n\n", t.lib.Domain)
	if len(decisions) == 0 {
		b.WriteString("No decisions match the given filters.\n")
		return mcp.NewToolResultText(b.String()), nil
	}
	for _, d := range decisions {
		writeDecision(&b, d)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// DecisionDetailTool handles flow_decision_detail: one decision plus
// the tasks it gates.
type DecisionDetailTool struct {
	lib *library.Library
}

// NewDecisionDetailTool creates a DecisionDetailTool.
func NewDecisionDetailTool(lib *library.Library) *DecisionDetailTool {
	return &DecisionDetailTool{lib: lib}
}

// Definition returns the MCP tool definition for registration.
func (t *DecisionDetailTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_decision_detail",
		mcp.WithDescription(
			"Show one decision in full: question, allowed outcomes, notes, "+
				"and every workflow task whose inclusion it gates.",
		),
		mcp.WithString("decision_id",
			mcp.Required(),
			mcp.Description("Decision id, e.g. Q-SEC-01"),
		),
	)
}

// Handle processes the flow_decision_detail tool call.
func (t *DecisionDetailTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("decision_id", "")
	if id == "" {
		return mcp.NewToolResultError("'decision_id' is required"), nil
	}

	d, ok := t.lib.Decision(id)
	if !ok {
		return notFound("decision", id), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", d.ID, d.Question)
	fmt.Fprintf(&b, "Category: %s\n", d.Category)
	if d.Stage != "" {
		fmt.Fprintf(&b, "Stage: %s\n", d.Stage)
	}
	fmt.Fprintf(&b, "Outcomes: %s\n", strings.Join(d.Outcomes, " | "))
	if d.Affects != "" {
		fmt.Fprintf(&b, "Affects: %s\n", d.Affects)
	}
	if d.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", d.Notes)
	}

	affected := t.lib.AffectedTasks(id)
	b.WriteString("\n## Gated tasks\n\n")
	if len(affected) == 0 {
		b.WriteString("No tasks are gated by this decision.\n")
	}
	for _, task := range affected {
		fmt.Fprintf(&b, "- %s — %s (requires: %s)\n", task.ID, task.Name, task.RequiredOutcome)
	}
	return mcp.NewToolResultText(b.String()), nil
}
