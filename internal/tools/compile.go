package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/gxpkit/batchflow/internal/answers"
	"github.com/gxpkit/batchflow/internal/flow"
	"github.com/gxpkit/batchflow/internal/library"
	"github.com/gxpkit/batchflow/internal/mermaid"
	"github.com/mark3labs/mcp-go/mcp"
)

// CompileTool handles flow_compile: filter the library by the client's
// answers, compile the surviving tasks into a graph, and return the
// Mermaid rendering plus a structural summary.
type CompileTool struct {
	lib   *library.Library
	store *answers.Store
}

// NewCompileTool creates a CompileTool.
func NewCompileTool(lib *library.Library, store *answers.Store) *CompileTool {
	return &CompileTool{lib: lib, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *CompileTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_compile",
		mcp.WithDescription(
			"Compile a client's workflow diagram from the process library and the client's "+
				"saved answers. Tasks gated by unanswered or mismatched decisions are dropped; "+
				"connectivity is repaired through the nearest surviving ancestor; loop pairs get "+
				"iteration back-edges. Returns Mermaid flowchart source.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client whose answers select the workflow variant"),
		),
		mcp.WithString("stage",
			mcp.Description("Compile only this stage; empty compiles the whole workflow"),
		),
		mcp.WithString("annotated",
			mcp.Description("Set to 'true' for the narrative rendering with start/finish markers"),
		),
	)
}

// Handle processes the flow_compile tool call.
func (t *CompileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	stage := req.GetString("stage", "")
	annotated := req.GetString("annotated", "") == "true"
	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}

	answered, version, err := t.store.Outcomes(client)
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}
	if len(answered) == 0 {
		return unconfigured(client), nil
	}

	g := flow.Compile(t.lib, answered, flow.Options{Stage: stage, Annotated: annotated})
	source := mermaid.Render(g)

	var b strings.Builder
	fmt.Fprintf(&b, "# Workflow for %s (answer version %d)\n\n", client, version)
	fmt.Fprintf(&b, "%d nodes, %d edges", len(g.Nodes), len(g.Edges))
	if stage != "" {
		fmt.Fprintf(&b, " (stage: %s)", stage)
	}
	b.WriteString("\n\n```mermaid\n")
	b.WriteString(source)
	b.WriteString("```\n")
	return mcp.NewToolResultText(b.String()), nil
}

// ValidateTool handles flow_validate: advisory structural checks over
// the same (library, answers) inputs a compile call would use.
type ValidateTool struct {
	lib   *library.Library
	store *answers.Store
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(lib *library.Library, store *answers.Store) *ValidateTool {
	return &ValidateTool{lib: lib, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_validate",
		mcp.WithDescription(
			"Check a client's configured workflow for structural defects: tasks left without "+
				"any included predecessor (orphans, or ancestor bridges when repairable) and loop "+
				"ends whose paired loop start was excluded. Findings are advisory — compilation "+
				"never blocks on them.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client whose configuration to validate"),
		),
		mcp.WithString("stage",
			mcp.Description("Validate only this stage"),
		),
	)
}

// Handle processes the flow_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	stage := req.GetString("stage", "")
	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}

	answered, _, err := t.store.Outcomes(client)
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}

	issues := flow.Validate(t.lib, answered, stage)

	var b strings.Builder
	fmt.Fprintf(&b, "# Validation for %s\n\n", client)
	writeIssues(&b, issues)
	return mcp.NewToolResultText(b.String()), nil
}
