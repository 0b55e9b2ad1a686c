package cli

import (
	"fmt"
	"os"

	"github.com/gxpkit/batchflow/internal/answers"
	"github.com/gxpkit/batchflow/internal/config"
	"github.com/gxpkit/batchflow/internal/flow"
	"github.com/gxpkit/batchflow/internal/mermaid"
	"github.com/gxpkit/batchflow/internal/render"
	flowserver "github.com/gxpkit/batchflow/internal/server"
	"github.com/spf13/cobra"
)

var (
	exportClient    string
	exportStage     string
	exportFormat    string
	exportOut       string
	exportAnnotated bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Compile and export a client's workflow from the command line",
	Long: "Compiles the workflow for a client from their saved answers and writes it to a file " +
		"or stdout. Format mermaid writes diagram source; png and svg call the configured renderer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fail("loading config", err)
		}
		lib, err := flowserver.LoadLibrary(cfg)
		if err != nil {
			return err
		}

		store, err := answers.Open(answers.Config{DataDir: cfg.DataDir})
		if err != nil {
			return fail("opening answer store", err)
		}
		defer func() { _ = store.Close() }()

		answered, _, err := store.Outcomes(exportClient)
		if err != nil {
			return fail("reading answers", err)
		}
		if len(answered) == 0 {
			return fmt.Errorf("client %q has no saved answers; configure it through the MCP server first", exportClient)
		}

		g := flow.Compile(lib, answered, flow.Options{Stage: exportStage, Annotated: exportAnnotated})
		source := mermaid.Render(g)

		var out []byte
		switch exportFormat {
		case "mermaid":
			out = []byte(source)
		case render.FormatPNG, render.FormatSVG:
			out, err = render.New(cfg.RendererURL).Render(cmd.Context(), exportFormat, source)
			if err != nil {
				return fail("rendering", err)
			}
		default:
			return fmt.Errorf("unsupported format %q; use mermaid, png, or svg", exportFormat)
		}

		if exportOut == "" || exportOut == "-" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(exportOut, out, 0o644); err != nil {
			return fail("writing output", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d nodes, %d edges) to %s\n",
			exportFormat, len(g.Nodes), len(g.Edges), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportClient, "client", "", "client whose workflow to export")
	exportCmd.Flags().StringVar(&exportStage, "stage", "", "export only this stage")
	exportCmd.Flags().StringVar(&exportFormat, "format", "mermaid", "mermaid, png, or svg")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file ('-' for stdout)")
	exportCmd.Flags().BoolVar(&exportAnnotated, "annotated", false, "narrative rendering with start/finish markers")
	_ = exportCmd.MarkFlagRequired("client")
}
