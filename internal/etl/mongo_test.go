package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lynxform/pkg/models"
)

type fakeCursor struct {
	docs []models.Record
	bad  map[int]bool
	err  error
	pos  int
}

func (c *fakeCursor) Next(_ context.Context) bool {
	c.pos++
	return c.pos <= len(c.docs)
}

func (c *fakeCursor) Decode(v interface{}) error {
	i := c.pos - 1
	if c.bad[i] {
		return errors.New("corrupt document")
	}
	*(v.(*models.Record)) = c.docs[i]
	return nil
}

func (c *fakeCursor) Err() error { return c.err }

func TestDrainCursorSkippedDocumentsStillAdvanceOffset(t *testing.T) {
	cursor := &fakeCursor{
		docs: []models.Record{
			{"id": 1},
			{"id": 2},
			{"id": 3},
		},
		bad: map[int]bool{1: true},
	}

	results, consumed, err := drainCursor(context.Background(), cursor)
	require.NoError(t, err)

	// The undecodable document is dropped from the batch but must count
	// toward the window, or the next batch would re-read documents that
	// already loaded.
	assert.Equal(t, 3, consumed)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0]["id"])
	assert.Equal(t, 3, results[1]["id"])
}

func TestDrainCursorPropagatesCursorError(t *testing.T) {
	cursor := &fakeCursor{
		docs: []models.Record{{"id": 1}},
		err:  errors.New("connection reset"),
	}

	_, _, err := drainCursor(context.Background(), cursor)
	assert.EqualError(t, err, "connection reset")
}
