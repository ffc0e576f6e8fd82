// Package engine evaluates type mappings against batches of untyped
// records. Each record is transformed independently; per-record failures
// are collected, never escalated to the batch.
package engine

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"lynxform/pkg/models"
)

// Evaluator applies transformation rules to values and records. It holds no
// per-batch state and is safe to reuse across mappings.
type Evaluator struct {
	custom *exprRunner
	sink   ErrorSink
	now    func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithErrorSink replaces the default log-based sink for batch error
// reporting.
func WithErrorSink(s ErrorSink) Option {
	return func(e *Evaluator) { e.sink = s }
}

// WithCustomTimeout changes the per-invocation budget for custom
// expressions.
func WithCustomTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.custom = newExprRunner(d) }
}

// WithClock overrides the timestamp source for _metadata.transformed_at.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		custom: newExprRunner(DefaultCustomTimeout),
		sink:   logSink{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// transformValue is the single entry point every rule kind funnels through,
// so nested and array transforms can recurse into arbitrary sub-rules.
func (e *Evaluator) transformValue(ctx context.Context, value interface{}, t models.Transform) (interface{}, error) {
	switch t := t.(type) {
	case nil, models.Direct:
		return value, nil

	case models.Custom:
		return e.custom.Run(ctx, t.Expression, value)

	case models.Nested:
		obj, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("value must be an object for nested transformation, got %T", value)
		}
		return e.transformNested(ctx, obj, t.Mappings)

	case models.Array:
		items, ok := asSlice(value)
		if !ok {
			return nil, fmt.Errorf("value must be an array for array transformation, got %T", value)
		}
		item := t.Item
		if item == nil {
			item = models.Direct{}
		}
		out := make([]interface{}, 0, len(items))
		for i, el := range items {
			v, err := e.transformValue(ctx, el, item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil

	case models.Reference:
		if t.RefType == "" {
			return nil, fmt.Errorf("reference type not specified")
		}
		refField := t.RefField
		if refField == "" {
			refField = "id"
		}
		return map[string]interface{}{
			"type":      t.RefType,
			"id":        value,
			"ref_field": refField,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported transformation type: %s", t.Kind())
	}
}

func (e *Evaluator) transformNested(ctx context.Context, obj map[string]interface{}, mappings []models.TransformationRule) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for _, sub := range mappings {
		raw, ok := obj[sub.SourceField]
		if !ok {
			continue
		}
		v, err := e.transformValue(ctx, raw, sub.Transform)
		if err != nil {
			return nil, fmt.Errorf("nested transformation failed for field %s: %w", sub.SourceField, err)
		}
		result[sub.TargetField] = v
	}
	return result, nil
}

// asSlice accepts any slice shape a decoder may hand us ([]interface{},
// bson.A, []string, ...). Strings and byte slices are not sequences here.
func asSlice(value interface{}) ([]interface{}, bool) {
	if items, ok := value.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
