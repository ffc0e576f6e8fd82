package engine

import (
	"context"
	"time"

	"lynxform/pkg/models"
)

// Output bookkeeping keys injected into every transformed record.
const (
	TypeField     = "_type"
	MetadataField = "_metadata"
)

// TransformRecord applies one type mapping to one record. Rules whose
// source field is absent from the record are skipped silently; a record with
// zero matching source fields still succeeds, producing only the _type and
// _metadata fields. The first rule failure aborts the record.
func (e *Evaluator) TransformRecord(ctx context.Context, record models.Record, mapping *models.TypeMapping) (models.Record, error) {
	out := models.Record{
		TypeField: mapping.TargetType,
		MetadataField: map[string]interface{}{
			"source_type":    mapping.SourceType,
			"mapping_name":   mapping.Name,
			"transformed_at": e.now().UTC().Format(time.RFC3339Nano),
		},
	}

	for _, rule := range mapping.Rules {
		raw, ok := record[rule.SourceField]
		if !ok {
			continue
		}
		v, err := e.transformValue(ctx, raw, rule.Transform)
		if err != nil {
			return nil, &FieldError{Field: rule.SourceField, Err: err}
		}
		out[rule.TargetField] = v
	}

	return out, nil
}
