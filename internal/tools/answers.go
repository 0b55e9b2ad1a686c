package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gxpkit/batchflow/internal/answers"
	"github.com/gxpkit/batchflow/internal/library"
	"github.com/mark3labs/mcp-go/mcp"
)

// SaveAnswerTool handles flow_save_answer.
type SaveAnswerTool struct {
	lib   *library.Library
	store *answers.Store
}

// NewSaveAnswerTool creates a SaveAnswerTool.
func NewSaveAnswerTool(lib *library.Library, store *answers.Store) *SaveAnswerTool {
	return &SaveAnswerTool{lib: lib, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveAnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_save_answer",
		mcp.WithDescription(
			"Save one client's answer to a configuration decision. The outcome must be one of "+
				"the decision's allowed outcomes. Answers are amended in place and never deleted; "+
				"each save bumps the client's answer version.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client name the answer belongs to"),
		),
		mcp.WithString("decision_id",
			mcp.Required(),
			mcp.Description("Decision being answered, e.g. Q-SEC-01"),
		),
		mcp.WithString("outcome",
			mcp.Required(),
			mcp.Description("Selected outcome; must be in the decision's outcome set"),
		),
		mcp.WithString("rationale",
			mcp.Description("Optional note on why this outcome was chosen"),
		),
		mcp.WithString("base_version",
			mcp.Description(
				"Answer version this edit is based on (from flow_list_answers). "+
					"When set, a save against a newer version is rejected instead of overwriting it.",
			),
		),
	)
}

// Handle processes the flow_save_answer tool call.
func (t *SaveAnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	decisionID := req.GetString("decision_id", "")
	outcome := req.GetString("outcome", "")
	rationale := req.GetString("rationale", "")
	baseRaw := req.GetString("base_version", "")

	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}
	if decisionID == "" {
		return mcp.NewToolResultError("'decision_id' is required"), nil
	}
	if outcome == "" {
		return mcp.NewToolResultError("'outcome' is required"), nil
	}

	d, ok := t.lib.Decision(decisionID)
	if !ok {
		return notFound("decision", decisionID), nil
	}
	if !d.HasOutcome(outcome) {
		return invalidOutcome(d, outcome), nil
	}

	baseVersion := int64(answers.NoVersionCheck)
	if baseRaw != "" {
		v, err := strconv.ParseInt(baseRaw, 10, 64)
		if err != nil || v < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("'base_version' must be a non-negative integer, got %q", baseRaw)), nil
		}
		baseVersion = v
	}

	version, err := t.store.Save(client, decisionID, outcome, rationale, baseVersion)
	if err != nil {
		if errors.Is(err, answers.ErrStaleVersion) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"answers for %q changed since version %d (now %d); re-read with flow_list_answers and retry",
				client, baseVersion, version,
			)), nil
		}
		return nil, fmt.Errorf("saving answer: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Saved %s = %q for client %q (answer version %d).",
		decisionID, outcome, client, version,
	)), nil
}

// ListAnswersTool handles flow_list_answers.
type ListAnswersTool struct {
	store *answers.Store
}

// NewListAnswersTool creates a ListAnswersTool.
func NewListAnswersTool(store *answers.Store) *ListAnswersTool {
	return &ListAnswersTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListAnswersTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_list_answers",
		mcp.WithDescription(
			"List a client's saved decision answers and the current answer version. "+
				"An unknown client yields an empty list, not an error.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client name"),
		),
	)
}

// Handle processes the flow_list_answers tool call.
func (t *ListAnswersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}

	answerMap, version, err := t.store.List(client)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Answers for %s (version %d)\n\n", client, version)
	if len(answerMap) == 0 {
		b.WriteString("No answers saved yet.\n")
		return mcp.NewToolResultText(b.String()), nil
	}

	// Stable order: the store returns a map; sort by decision id.
	ids := make([]string, 0, len(answerMap))
	for id := range answerMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := answerMap[id]
		fmt.Fprintf(&b, "- %s = %q", id, a.SelectedOutcome)
		if a.Rationale != "" {
			fmt.Fprintf(&b, " — %s", a.Rationale)
		}
		fmt.Fprintf(&b, " (updated %s)\n", a.UpdatedAt)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ListUnansweredTool handles flow_list_unanswered.
type ListUnansweredTool struct {
	lib   *library.Library
	store *answers.Store
}

// NewListUnansweredTool creates a ListUnansweredTool.
func NewListUnansweredTool(lib *library.Library, store *answers.Store) *ListUnansweredTool {
	return &ListUnansweredTool{lib: lib, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListUnansweredTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_list_unanswered",
		mcp.WithDescription(
			"List the practice decisions a client has not answered yet, optionally for one stage. "+
				"Tasks gated by an unanswered decision are excluded from the compiled workflow, "+
				"so this is the client's remaining configuration work.",
		),
		mcp.WithString("client",
			mcp.Required(),
			mcp.Description("Client name"),
		),
		mcp.WithString("stage",
			mcp.Description("Only decisions of this stage"),
		),
	)
}

// Handle processes the flow_list_unanswered tool call.
func (t *ListUnansweredTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := req.GetString("client", "")
	stage := req.GetString("stage", "")
	if client == "" {
		return mcp.NewToolResultError("'client' is required"), nil
	}

	answered, _, err := t.store.Outcomes(client)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Unanswered decisions for %s\n\n", client)
	count := 0
	for _, d := range t.lib.Decisions(stage, library.CategoryPractice) {
		if _, ok := answered[d.ID]; ok {
			continue
		}
		writeDecision(&b, d)
		count++
	}
	if count == 0 {
		b.WriteString("All practice decisions are answered.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
