package engine

import (
	"context"

	"lynxform/pkg/logger"
	"lynxform/pkg/models"
)

// TransformBatch applies one type mapping to an ordered sequence of
// records. Successes keep their relative input order; failed records are
// omitted from the output and collected in the returned error list instead.
// Processing never aborts early — the caller decides what a non-empty error
// list means.
func (e *Evaluator) TransformBatch(ctx context.Context, records []models.Record, mapping *models.TypeMapping) ([]models.Record, []RecordError) {
	transformed := make([]models.Record, 0, len(records))
	var errs []RecordError

	for i, record := range records {
		out, err := e.TransformRecord(ctx, record, mapping)
		if err != nil {
			errs = append(errs, RecordError{
				RecordIndex: i,
				Message:     err.Error(),
				Record:      record,
				Err:         err,
			})
			continue
		}
		transformed = append(transformed, out)
	}

	if len(errs) > 0 {
		e.reportErrors(ctx, mapping.Name, errs)
	}
	return transformed, errs
}

// reportErrors forwards batch failures to the configured sink. The report
// is fire-and-forget: a sink error or panic must never fail or alter the
// batch result.
func (e *Evaluator) reportErrors(ctx context.Context, mappingName string, errs []RecordError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("error sink panicked for mapping %s: %v", mappingName, r)
		}
	}()
	if err := e.sink.ReportTransformErrors(ctx, mappingName, errs); err != nil {
		logger.Errorf("failed to report transformation errors for mapping %s: %v", mappingName, err)
	}
}
