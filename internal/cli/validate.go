package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lynxform/internal/config"
)

func NewValidateCmd() *cobra.Command {
	var mappingFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a type mapping file without processing any records",
		RunE: func(c *cobra.Command, args []string) error {
			mapping, err := config.LoadMapping(mappingFile)
			if err != nil {
				return err
			}
			fmt.Printf("Mapping %q is valid: %s -> %s, %d rules.\n",
				mapping.Name, mapping.SourceType, mapping.TargetType, len(mapping.Rules))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingFile, "mapping", "m", "configs/mapping.json", "Path to mapping file")
	return cmd
}
