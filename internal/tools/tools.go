// Package tools implements the MCP tool handlers for batchflow.
//
// Each tool is a struct holding its dependencies (library, stores,
// renderer) with a Definition/Handle pair, one concern per file.
// Domain failures (unknown ids, invalid outcomes, unconfigured
// clients) are returned as tool error results; infrastructure failures
// propagate as Go errors.
package tools

import (
	"fmt"
	"strings"

	"github.com/gxpkit/batchflow/internal/flow"
	"github.com/gxpkit/batchflow/internal/library"
	"github.com/mark3labs/mcp-go/mcp"
)

// notFound formats the standard not-found tool error.
func notFound(kind, id string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s %q not found", kind, id))
}

// invalidOutcome formats the invalid-outcome tool error with the full
// allowed set, so the caller can correct the save without another
// round trip.
func invalidOutcome(d library.Decision, outcome string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(
		"invalid outcome %q for decision %s; allowed outcomes: %s",
		outcome, d.ID, strings.Join(d.Outcomes, ", "),
	))
}

// unconfigured formats the error for compile requests against a client
// with no saved answers.
func unconfigured(client string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(
		"client %q has no saved answers yet; save at least one answer with flow_save_answer before compiling",
		client,
	))
}

// writeDecision appends one decision's summary block to a response.
func writeDecision(b *strings.Builder, d library.Decision) {
	fmt.Fprintf(b, "- **%s** (%s", d.ID, d.Category)
	if d.Stage != "" {
		fmt.Fprintf(b, ", stage: %s", d.Stage)
	}
	b.WriteString(")\n")
	fmt.Fprintf(b, "  %s\n", d.Question)
	fmt.Fprintf(b, "  Outcomes: %s\n", strings.Join(d.Outcomes, " | "))
}

// writeIssues appends validator findings to a response.
func writeIssues(b *strings.Builder, issues []flow.Issue) {
	if len(issues) == 0 {
		b.WriteString("No structural issues found.\n")
		return
	}
	for _, i := range issues {
		fmt.Fprintf(b, "- [%s] %s — %s: %s\n", i.Severity, i.Code, i.TaskID, i.Detail)
	}
}
