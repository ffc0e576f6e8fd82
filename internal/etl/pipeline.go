package etl

import (
	"context"
	"fmt"
	"os"
	"time"

	"lynxform/internal/engine"
	"lynxform/pkg/logger"
	"lynxform/pkg/models"
)

// DefaultBatchDelay is the pause between batches so a slow target store is
// not overwhelmed by back-to-back bulk writes.
const DefaultBatchDelay = 100 * time.Millisecond

// Pipeline drives Extract -> Transform -> Load over an entire source,
// batch by batch. Per-record transformation failures are collected, not
// fatal; extraction and load failures abort the run.
type Pipeline struct {
	Extractor Extractor
	Loader    Loader
	Engine    *engine.Evaluator
	Mapping   *models.TypeMapping

	BatchSize int
	Delay     time.Duration
	DryRun    bool

	// CheckpointFile persists the last committed offset so an interrupted
	// run can resume. Empty disables checkpointing.
	CheckpointFile string
}

// Stats summarizes one pipeline run for the partial-success report.
type Stats struct {
	Batches     int
	Extracted   int
	Transformed int
	Failed      int
}

func NewPipeline(ext Extractor, loader Loader, eng *engine.Evaluator, mapping *models.TypeMapping, batchSize int) *Pipeline {
	return &Pipeline{
		Extractor: ext,
		Loader:    loader,
		Engine:    eng,
		Mapping:   mapping,
		BatchSize: batchSize,
		Delay:     DefaultBatchDelay,
	}
}

func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	var offset interface{}
	if p.CheckpointFile != "" {
		offset = loadCheckpoint(p.CheckpointFile)
	}

	stats := &Stats{}
	start := time.Now()
	logger.Infof("Starting pipeline for mapping %q. Batch size: %d, start offset: %v, dry run: %v",
		p.Mapping.Name, p.BatchSize, offset, p.DryRun)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		records, nextOffset, err := p.Extractor.Extract(ctx, p.BatchSize, offset)
		if err != nil {
			return stats, fmt.Errorf("extraction failed at offset %v: %w", offset, err)
		}
		if len(records) == 0 {
			break
		}
		stats.Batches++
		stats.Extracted += len(records)

		transformed, recordErrs := p.Engine.TransformBatch(ctx, records, p.Mapping)
		stats.Transformed += len(transformed)
		stats.Failed += len(recordErrs)

		if p.DryRun {
			logger.Infof("[DRY RUN] Would load %d records (%d failed transformation)", len(transformed), len(recordErrs))
		} else if len(transformed) > 0 {
			if err := p.Loader.Load(ctx, transformed); err != nil {
				return stats, fmt.Errorf("loading failed at offset %v: %w", offset, err)
			}
		}

		offset = nextOffset
		if p.CheckpointFile != "" && !p.DryRun {
			saveCheckpoint(p.CheckpointFile, offset)
		}

		elapsed := time.Since(start)
		rate := 0.0
		if elapsed.Seconds() > 0 {
			rate = float64(stats.Extracted) / elapsed.Seconds()
		}
		logger.Infof("Batch %d done at %s: ingestion_time=%s record_count=%d mapping=%s. Total: %d (%.2f records/sec). Next offset: %v",
			stats.Batches, elapsed.Round(time.Millisecond), time.Now().UTC().Format(time.RFC3339),
			len(records), p.Mapping.Name, stats.Extracted, rate, offset)

		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}

	if p.CheckpointFile != "" && !p.DryRun {
		os.Remove(p.CheckpointFile)
	}
	logger.Infof("Pipeline finished: %d of %d records transformed, %d failed.",
		stats.Transformed, stats.Extracted, stats.Failed)
	return stats, nil
}

// ValidateRecords rejects a batch that cannot be ingested at all: no
// records, or entries that are not objects.
func ValidateRecords(records []models.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records provided for ingestion")
	}
	for i, r := range records {
		if r == nil {
			return fmt.Errorf("record %d is not an object", i)
		}
	}
	return nil
}

func loadCheckpoint(filename string) interface{} {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil
	}
	return string(data)
}

func saveCheckpoint(filename string, offset interface{}) {
	_ = os.WriteFile(filename, []byte(fmt.Sprintf("%v", offset)), 0644)
}
