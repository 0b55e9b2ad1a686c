// Package server wires all MCP components and creates the server
// instance. This is the composition root: it loads the process
// library, opens the stores, and injects them into the tool handlers.
// No workflow logic lives here.
package server

import (
	"fmt"
	"log"

	"github.com/gxpkit/batchflow/internal/answers"
	"github.com/gxpkit/batchflow/internal/config"
	"github.com/gxpkit/batchflow/internal/library"
	"github.com/gxpkit/batchflow/internal/render"
	"github.com/gxpkit/batchflow/internal/snapshots"
	"github.com/gxpkit/batchflow/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the store databases and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	lib, err := LoadLibrary(cfg)
	if err != nil {
		return nil, noop, err
	}

	answerStore, err := answers.Open(answers.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, noop, fmt.Errorf("opening answer store: %w", err)
	}

	snapStore, err := snapshots.Open(snapshots.Config{DataDir: cfg.DataDir})
	if err != nil {
		_ = answerStore.Close()
		return nil, noop, fmt.Errorf("opening snapshot store: %w", err)
	}

	cleanup := func() {
		if err := snapStore.Close(); err != nil {
			log.Printf("WARNING: snapshot store close: %v", err)
		}
		if err := answerStore.Close(); err != nil {
			log.Printf("WARNING: answer store close: %v", err)
		}
	}

	renderer := render.New(cfg.RendererURL)

	s := server.NewMCPServer(
		"batchflow",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(lib)),
	)

	// --- Library reads ---

	listDecisions := tools.NewListDecisionsTool(lib)
	s.AddTool(listDecisions.Definition(), listDecisions.Handle)

	decisionDetail := tools.NewDecisionDetailTool(lib)
	s.AddTool(decisionDetail.Definition(), decisionDetail.Handle)

	// --- Client configuration ---

	saveAnswer := tools.NewSaveAnswerTool(lib, answerStore)
	s.AddTool(saveAnswer.Definition(), saveAnswer.Handle)

	listAnswers := tools.NewListAnswersTool(answerStore)
	s.AddTool(listAnswers.Definition(), listAnswers.Handle)

	listUnanswered := tools.NewListUnansweredTool(lib, answerStore)
	s.AddTool(listUnanswered.Definition(), listUnanswered.Handle)

	// --- Compilation & validation ---

	compile := tools.NewCompileTool(lib, answerStore)
	s.AddTool(compile.Definition(), compile.Handle)

	validate := tools.NewValidateTool(lib, answerStore)
	s.AddTool(validate.Definition(), validate.Handle)

	// --- Persistence & export ---

	saveWorkflow := tools.NewSaveWorkflowTool(lib, answerStore, snapStore)
	s.AddTool(saveWorkflow.Definition(), saveWorkflow.Handle)

	getWorkflow := tools.NewGetWorkflowTool(snapStore)
	s.AddTool(getWorkflow.Definition(), getWorkflow.Handle)

	export := tools.NewExportTool(lib, answerStore, renderer)
	s.AddTool(export.Definition(), export.Handle)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails early.
func noop() {}

// LoadLibrary loads the configured library document, or the embedded
// dispensing library when none is configured. Shared with the CLI
// export path so both surfaces compile from the same library.
func LoadLibrary(cfg config.Config) (*library.Library, error) {
	if cfg.LibraryPath == "" {
		return library.Seed(), nil
	}
	lib, err := library.LoadFile(cfg.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}
	return lib, nil
}

// serverInstructions tells the AI how to drive a workflow
// configuration session.
func serverInstructions(lib *library.Library) string {
	return fmt.Sprintf(`You have access to batchflow, a manufacturing workflow configurator
for the %q process domain.

## How it works

The process library is a fixed set of workflow tasks. Tasks are gated
by yes/no/choice decisions; a client's saved answers determine which
tasks appear in their compiled workflow diagram. Runtime condition
branches (decision ids starting with RT-) are always shown — they are
failure paths, not configuration.

## Typical session

1. flow_list_unanswered — see what the client still has to decide
2. flow_decision_detail — read a decision and the tasks it gates
3. Discuss the decision with the user, then flow_save_answer
4. flow_compile — render the configured workflow as Mermaid
5. flow_validate — check for orphaned tasks or broken loop pairs
6. flow_save_workflow / flow_export — persist or rasterize the result

## Rules

- An unanswered decision is normal, not an error: its gated tasks are
  simply left out until the client decides.
- Validation findings are advisory. Present them to the user; never
  refuse to compile because of them.
- Pass base_version from flow_list_answers when amending an answer the
  user reviewed earlier, so concurrent edits are not silently lost.`,
		lib.Domain)
}
