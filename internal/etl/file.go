package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"lynxform/pkg/models"
	"lynxform/pkg/utils"
)

// JSONFileExtractor pages through a JSON array of records loaded from disk.
type JSONFileExtractor struct {
	records []models.Record
}

// NewJSONFileExtractor reads the whole input file up front. Input files are
// operator-supplied batches, not unbounded streams.
func NewJSONFileExtractor(path string) (*JSONFileExtractor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file '%s': %w", path, err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse input file '%s': %w", path, err)
	}
	if err := ValidateRecords(records); err != nil {
		return nil, fmt.Errorf("invalid input file '%s': %w", path, err)
	}
	return &JSONFileExtractor{records: records}, nil
}

// Len reports the total number of input records.
func (f *JSONFileExtractor) Len() int { return len(f.records) }

func (f *JSONFileExtractor) Extract(_ context.Context, batchSize int, offset interface{}) ([]models.Record, interface{}, error) {
	start := utils.IntOffset(offset)
	if start >= len(f.records) {
		return nil, start, nil
	}
	end := start + batchSize
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[start:end], end, nil
}

// JSONFileLoader buffers transformed records and writes them out as one
// JSON array on Flush.
type JSONFileLoader struct {
	Path    string
	records []models.Record
}

func (l *JSONFileLoader) Load(_ context.Context, records []models.Record) error {
	l.records = append(l.records, records...)
	return nil
}

// Flush writes the accumulated output. An empty run still produces a valid
// (empty) JSON array.
func (l *JSONFileLoader) Flush() error {
	out := l.records
	if out == nil {
		out = []models.Record{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := os.WriteFile(l.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", l.Path, err)
	}
	return nil
}
