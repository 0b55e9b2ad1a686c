package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gxpkit/batchflow/internal/answers"
	"github.com/gxpkit/batchflow/internal/flow"
	"github.com/gxpkit/batchflow/internal/library"
	"github.com/gxpkit/batchflow/internal/mermaid"
	"github.com/gxpkit/batchflow/internal/render"
	"github.com/gxpkit/batchflow/internal/snapshots"
	"github.com/mark3labs/mcp-go/mcp"
)

// SaveWorkflowTool handles flow_save_workflow: compile and persist the
// result as a snapshot.
type SaveWorkflowTool struct {
	lib   *library.Library
	store *answers.Store
	snaps *snapshots.Store
}

// NewSaveWorkflowTool creates a SaveWorkflowTool.
func NewSaveWorkflowTool(lib *library.Library, store *answers.Store, snaps *snapshots.Store) *SaveWorkflowTool {
	return &SaveWorkflowTool{lib: lib, store: store, snaps: snaps}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_save_workflow",
		mcp.WithDescription(
			"Compile the client's workflow and persist the result as a snapshot: "+
				"Mermaid source plus the answer version it was compiled from.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client whose workflow to compile and save"),
		),
		mcp.WithString("stage",
			mcp.Description("Compile only this stage"),
		),
	)
}

// Handle processes the flow_save_workflow tool call.
func (t *SaveWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	stage := req.GetString("stage", "")
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

	g := flow.Compile(t.lib, answered, flow.Options{Stage: stage})
	snap, err := t.snaps.Save(snapshots.Snapshot{
		Client:        client,
		Stage:         stage,
		AnswerVersion: version,
		Mermaid:       mermaid.Render(g),
		NodeCount:     len(g.Nodes),
		EdgeCount:     len(g.Edges),
	})
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Workflow snapshot %s saved for %q: %d nodes, %d edges (answer version %d).",
		snap.ID, client, snap.NodeCount, snap.EdgeCount, snap.AnswerVersion,
	)), nil
}

// GetWorkflowTool handles flow_get_workflow.
type GetWorkflowTool struct {
	snaps *snapshots.Store
}

// NewGetWorkflowTool creates a GetWorkflowTool.
func NewGetWorkflowTool(snaps *snapshots.Store) *GetWorkflowTool {
	return &GetWorkflowTool{snaps: snaps}
}

// Definition returns the MCP tool definition for registration.
func (t *GetWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_get_workflow",
		mcp.WithDescription(
			"Fetch the latest saved workflow snapshot for a client: metadata plus Mermaid source.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client name"),
		),
	)
}

// Handle processes the flow_get_workflow tool call.
func (t *GetWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}

	snap, err := t.snaps.Latest(client)
	if err != nil {
		if errors.Is(err, snapshots.ErrNotFound) {
			return notFound("saved workflow for client", client), nil
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Saved workflow %s\n\n", snap.ID)
	fmt.Fprintf(&b, "Client: %s\n", snap.Client)
	if snap.Stage != "" {
		fmt.Fprintf(&b, "Stage: %s\n", snap.Stage)
	}
	fmt.Fprintf(&b, "Answer version: %d\nSaved: %s\n", snap.AnswerVersion, snap.CreatedAt)
	fmt.Fprintf(&b, "%d nodes, %d edges\n\n", snap.NodeCount, snap.EdgeCount)
	b.WriteString("```mermaid\n")
	b.WriteString(snap.Mermaid)
	b.WriteString("```\n")
	return mcp.NewToolResultText(b.String()), nil
}

// ExportTool handles flow_export: compile and hand the Mermaid source
// to the external renderer, or return the source itself.
type ExportTool struct {
	lib      *library.Library
	store    *answers.Store
	renderer *render.Client
}

// NewExportTool creates an ExportTool.
func NewExportTool(lib *library.Library, store *answers.Store, renderer *render.Client) *ExportTool {
	return &ExportTool{lib: lib, store: store, renderer: renderer}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_export",
		mcp.WithDescription(
			"Export a client's compiled workflow. Format 'mermaid' returns the diagram source; "+
				"'png' and 'svg' call the configured external renderer and return the image "+
				"base64-encoded. Renderer failures are reported as-is, not retried.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client whose workflow to export"),
		),
		mcp.WithString("format",
			mcp.Description("mermaid (default), png, or svg"),
		),
		mcp.WithString("stage",
			mcp.Description("Export only this stage"),
		),
	)
}

// Handle processes the flow_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	format := req.GetString("format", "mermaid")
	stage := req.GetString("stage", "")
	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}

	answered, _, err := t.store.Outcomes(client)
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}
	if len(answered) == 0 {
		return unconfigured(client), nil
	}

	g := flow.Compile(t.lib, answered, flow.Options{Stage: stage, Annotated: true})
	source := mermaid.Render(g)

	switch format {
	case "mermaid":
		return mcp.NewToolResultText(source), nil
	case render.FormatPNG, render.FormatSVG:
		img, err := t.renderer.Render(ctx, format, source)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("rendering failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"%s export for %q (%d bytes, base64):\n%s",
			format, client, len(img), base64.StdEncoding.EncodeToString(img),
		)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf(
			"unsupported format %q; use mermaid, png, or svg", format,
		)), nil
	}
}
