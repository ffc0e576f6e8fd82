package etl

import (
	"context"

	"lynxform/pkg/models"
)

// Extractor pulls one batch of source records starting at an opaque offset.
// It returns the batch, the offset of the next batch, and an error. An
// empty batch signals the end of the input.
type Extractor interface {
	Extract(ctx context.Context, batchSize int, offset interface{}) ([]models.Record, interface{}, error)
}

// Loader writes one batch of transformed records to the target store.
type Loader interface {
	Load(ctx context.Context, records []models.Record) error
}
