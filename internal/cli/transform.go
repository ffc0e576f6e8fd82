package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lynxform/internal/config"
	"lynxform/internal/engine"
	"lynxform/internal/etl"
)

type TransformOptions struct {
	MappingFile string
	InputFile   string
	OutputFile  string
	BatchSize   int
	DryRun      bool
}

func NewTransformCmd() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform a JSON file of records through a type mapping",
		RunE: func(c *cobra.Command, args []string) error {
			return runTransform(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.MappingFile, "mapping", "m", "configs/mapping.json", "Path to mapping file")
	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Path to JSON array of input records")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "transformed.json", "Path for transformed output")
	cmd.Flags().IntVarP(&opts.BatchSize, "batch-size", "b", 100, "Batch size")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Transform without writing output")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runTransform(ctx context.Context, opts *TransformOptions) error {
	mapping, err := config.LoadMapping(opts.MappingFile)
	if err != nil {
		return err
	}

	extractor, err := etl.NewJSONFileExtractor(opts.InputFile)
	if err != nil {
		return err
	}
	loader := &etl.JSONFileLoader{Path: opts.OutputFile}

	pipeline := etl.NewPipeline(extractor, loader, engine.New(), mapping, opts.BatchSize)
	pipeline.DryRun = opts.DryRun
	// File-to-file runs have no remote store to pace.
	pipeline.Delay = 0

	stats, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if err := loader.Flush(); err != nil {
			return err
		}
	}

	fmt.Printf("%d of %d records transformed; %d failed.\n", stats.Transformed, stats.Extracted, stats.Failed)
	return nil
}
