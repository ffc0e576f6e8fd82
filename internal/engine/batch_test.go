package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lynxform/pkg/models"
)

type recordingSink struct {
	mappingName string
	reported    []RecordError
	err         error
	panics      bool
}

func (s *recordingSink) ReportTransformErrors(_ context.Context, mappingName string, errs []RecordError) error {
	if s.panics {
		panic("sink exploded")
	}
	s.mappingName = mappingName
	s.reported = errs
	return s.err
}

func nestedAddressMapping() *models.TypeMapping {
	return testMapping(models.TransformationRule{
		SourceField: "addr",
		TargetField: "address",
		Transform: models.Nested{Mappings: []models.TransformationRule{
			{SourceField: "city", TargetField: "town_name", Transform: models.Direct{}},
		}},
	})
}

func TestBatchPartialFailureIsolation(t *testing.T) {
	sink := &recordingSink{}
	e := New(WithErrorSink(sink))
	mapping := nestedAddressMapping()

	records := []models.Record{
		{"addr": map[string]interface{}{"city": "Alpha"}},
		{"addr": "not an object"}, // fails
		{"addr": map[string]interface{}{"city": "Gamma"}},
	}

	out, errs := e.TransformBatch(context.Background(), records, mapping)

	require.Len(t, out, 2)
	assert.Equal(t, map[string]interface{}{"town_name": "Alpha"}, out[0]["address"])
	assert.Equal(t, map[string]interface{}{"town_name": "Gamma"}, out[1]["address"])

	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].RecordIndex)
	assert.Equal(t, records[1], errs[0].Record)
	assert.Contains(t, errs[0].Message, "addr")
}

func TestBatchPreservesInputOrder(t *testing.T) {
	e := New(WithErrorSink(&recordingSink{}))
	mapping := testMapping(models.TransformationRule{
		SourceField: "n",
		TargetField: "n",
		Transform:   models.Direct{},
	})

	var records []models.Record
	for i := 0; i < 10; i++ {
		records = append(records, models.Record{"n": i})
	}

	out, errs := e.TransformBatch(context.Background(), records, mapping)
	require.Empty(t, errs)
	require.Len(t, out, 10)
	for i, rec := range out {
		assert.Equal(t, i, rec["n"])
	}
}

func TestBatchReportsErrorsToSink(t *testing.T) {
	sink := &recordingSink{}
	e := New(WithErrorSink(sink))

	_, errs := e.TransformBatch(context.Background(),
		[]models.Record{{"addr": 1}}, nestedAddressMapping())

	require.Len(t, errs, 1)
	assert.Equal(t, "person-to-employee", sink.mappingName)
	assert.Equal(t, errs, sink.reported)
}

func TestBatchSinkIsNotCalledWithoutErrors(t *testing.T) {
	sink := &recordingSink{}
	e := New(WithErrorSink(sink))

	out, errs := e.TransformBatch(context.Background(),
		[]models.Record{{"addr": map[string]interface{}{"city": "Alpha"}}}, nestedAddressMapping())

	require.Empty(t, errs)
	require.Len(t, out, 1)
	assert.Nil(t, sink.reported)
}

func TestBatchSinkFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("monitoring is down")}
	e := New(WithErrorSink(sink))

	out, errs := e.TransformBatch(context.Background(),
		[]models.Record{
			{"addr": map[string]interface{}{"city": "Alpha"}},
			{"addr": 1},
		}, nestedAddressMapping())

	assert.Len(t, out, 1)
	assert.Len(t, errs, 1)
}

func TestBatchSinkPanicIsSwallowed(t *testing.T) {
	sink := &recordingSink{panics: true}
	e := New(WithErrorSink(sink))

	assert.NotPanics(t, func() {
		out, errs := e.TransformBatch(context.Background(),
			[]models.Record{{"addr": 1}}, nestedAddressMapping())
		assert.Empty(t, out)
		assert.Len(t, errs, 1)
	})
}

func TestEmptyBatch(t *testing.T) {
	e := New(WithErrorSink(&recordingSink{}))

	out, errs := e.TransformBatch(context.Background(), nil, nestedAddressMapping())
	assert.Empty(t, out)
	assert.Empty(t, errs)
}
