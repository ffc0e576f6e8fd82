package engine

import (
	"context"
	"fmt"

	"lynxform/pkg/logger"
	"lynxform/pkg/models"
)

// FieldError reports that a single rule failed to evaluate for one field of
// one record. It is fatal to the record but never to the batch.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("transformation failed for field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RecordError ties a failed record to its position in the input batch. The
// original record is carried along for diagnosis.
type RecordError struct {
	RecordIndex int           `json:"record_index"`
	Message     string        `json:"error"`
	Record      models.Record `json:"record"`

	Err error `json:"-"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.RecordIndex, e.Message)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ErrorSink receives the per-record failures of a batch for monitoring.
// Reporting is best-effort: a sink error or panic never alters the batch
// result.
type ErrorSink interface {
	ReportTransformErrors(ctx context.Context, mappingName string, errs []RecordError) error
}

// logSink is the default sink; it writes failures to the shared logger.
type logSink struct{}

func (logSink) ReportTransformErrors(_ context.Context, mappingName string, errs []RecordError) error {
	for _, e := range errs {
		logger.Warnf("mapping %s: record %d failed: %s", mappingName, e.RecordIndex, e.Message)
	}
	return nil
}
