// Package cli wires the cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	"lynxform/pkg/logger"
)

func NewRootCmd() *cobra.Command {
	var logFile string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "lynxform",
		Short: "lynxform - rule-driven record transformation and ingestion",
		Long: `lynxform transforms batches of untyped records into a target schema
using declarative type mappings (direct, custom, nested, array and reference
rules), then loads the results into the target store. Records that fail
transformation are reported individually; the batch always runs to the end.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetDebug(debug)
			if logFile != "" {
				return logger.InitFile(logFile)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Mirror log output into a file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewTransformCmd())
	rootCmd.AddCommand(NewIngestCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewMappingsCmd())

	return rootCmd
}
