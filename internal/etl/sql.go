package etl

import (
	"context"
	"database/sql"
	"fmt"

	"lynxform/pkg/models"
	"lynxform/pkg/utils"
)

// SQLExtractor reads generic rows from a SQL Server table with offset
// paging. Every column becomes a record field; []byte values are
// normalized to strings so the engine sees JSON-compatible shapes.
type SQLExtractor struct {
	DB    *sql.DB
	Table string

	// OrderBy keeps paging consistent across batches.
	OrderBy string
}

func (s *SQLExtractor) Extract(ctx context.Context, batchSize int, offset interface{}) ([]models.Record, interface{}, error) {
	orderBy := s.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	start := utils.IntOffset(offset)

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
		s.Table, orderBy, start, batchSize)

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var results []models.Record
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, err
		}

		record := make(models.Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return results, start + len(results), nil
}
