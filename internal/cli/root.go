// Package cli defines the batchflow command surface.
package cli

import (
	"fmt"

	flowserver "github.com/gxpkit/batchflow/internal/server"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "batchflow",
	Short:   "Decision-gated manufacturing workflow compiler",
	Long:    "Batchflow compiles a fixed library of manufacturing process steps into client-specific workflow diagrams, gated by each client's saved configuration decisions.",
	Version: flowserver.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ~/.batchflow/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// fail wraps an error for cobra's RunE plumbing with a uniform prefix.
func fail(action string, err error) error {
	return fmt.Errorf("%s: %w", action, err)
}
