// Package cli provides the command-line interface for filedrop.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/filedrop/filedrop/internal/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global logger, initialized before any command runs
	logger *logging.Logger
)

// Version is set by the main package at startup.
var Version = "v1.0.0-dev"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filedrop",
		Short: "Export remotely-stored files to your Downloads folder",
		Long: `filedrop ` + Version + `
Exports one or more remotely-stored files into the device's public
Downloads area, resolving filename collisions and reporting the batch
outcome through a single desktop notification.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCatalogCmd())

	return rootCmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
