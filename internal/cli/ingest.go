package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lynxform/internal/config"
	"lynxform/internal/engine"
	"lynxform/internal/etl"
	"lynxform/internal/mappings"
	"lynxform/pkg/database"
	"lynxform/pkg/models"
)

type IngestOptions struct {
	MappingFile      string
	MappingID        string
	Source           string
	SourceTable      string
	SourceCollection string
	TargetCollection string
	BatchSize        int
	DelayMillis      int
	DryRun           bool
	CheckpointFile   string
}

func NewIngestCmd() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract records from a source store, transform them, and load into MongoDB",
		RunE: func(c *cobra.Command, args []string) error {
			return runIngest(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.MappingFile, "mapping", "m", "configs/mapping.json", "Path to mapping file")
	cmd.Flags().StringVar(&opts.MappingID, "mapping-id", "", "Id of a stored mapping (overrides --mapping)")
	cmd.Flags().StringVar(&opts.Source, "source", "mongo", "Source store: sql or mongo")
	cmd.Flags().StringVar(&opts.SourceTable, "table", "", "Source SQL table (source=sql)")
	cmd.Flags().StringVar(&opts.SourceCollection, "source-collection", "", "Source Mongo collection (source=mongo)")
	cmd.Flags().StringVar(&opts.TargetCollection, "target-collection", "", "Target Mongo collection")
	cmd.Flags().IntVarP(&opts.BatchSize, "batch-size", "b", 100, "Batch size")
	cmd.Flags().IntVar(&opts.DelayMillis, "delay", 100, "Delay between batches in milliseconds")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Extract and transform without loading")
	cmd.Flags().StringVar(&opts.CheckpointFile, "checkpoint", "", "Checkpoint file for resumable runs")
	cmd.MarkFlagRequired("target-collection")

	return cmd
}

func runIngest(ctx context.Context, opts *IngestOptions) error {
	cfg := config.LoadConfig()
	if err := cfg.RequireMongo(); err != nil {
		return err
	}

	mongoClient, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return err
	}
	defer func() {
		discCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(discCtx)
	}()

	var mapping *models.TypeMapping
	if opts.MappingID != "" {
		store := &mappings.MongoStore{
			Client:     mongoClient,
			Database:   cfg.MongoDatabase,
			Collection: mappingCollection,
		}
		stored, err := store.Get(ctx, opts.MappingID)
		if err != nil {
			return err
		}
		mapping = &stored.Mapping
	} else {
		mapping, err = config.LoadMapping(opts.MappingFile)
		if err != nil {
			return err
		}
	}

	var extractor etl.Extractor
	switch opts.Source {
	case "sql":
		if err := cfg.RequireSQL(); err != nil {
			return err
		}
		if opts.SourceTable == "" {
			return fmt.Errorf("--table is required when source is sql")
		}
		sqlDB, err := database.ConnectSQL(cfg.SQLConnString)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		extractor = &etl.SQLExtractor{DB: sqlDB, Table: opts.SourceTable}

	case "mongo":
		if opts.SourceCollection == "" {
			return fmt.Errorf("--source-collection is required when source is mongo")
		}
		extractor = &etl.MongoExtractor{
			Client:     mongoClient,
			Database:   cfg.MongoDatabase,
			Collection: opts.SourceCollection,
		}

	default:
		return fmt.Errorf("unknown source %q (want sql or mongo)", opts.Source)
	}

	loader := &etl.MongoLoader{
		Client:     mongoClient,
		Database:   cfg.MongoDatabase,
		Collection: opts.TargetCollection,
	}

	pipeline := etl.NewPipeline(extractor, loader, engine.New(), mapping, opts.BatchSize)
	pipeline.DryRun = opts.DryRun
	pipeline.Delay = time.Duration(opts.DelayMillis) * time.Millisecond
	pipeline.CheckpointFile = opts.CheckpointFile

	stats, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d of %d records transformed; %d failed.\n", stats.Transformed, stats.Extracted, stats.Failed)
	return nil
}
