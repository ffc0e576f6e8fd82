package etl

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lynxform/pkg/logger"
	"lynxform/pkg/models"
	"lynxform/pkg/utils"
)

// MongoExtractor pages through a source collection in a stable sort order.
type MongoExtractor struct {
	Client     *mongo.Client
	Database   string
	Collection string

	// SortField keeps paging consistent across batches. Defaults to _id.
	SortField string
}

func (m *MongoExtractor) Extract(ctx context.Context, batchSize int, offset interface{}) ([]models.Record, interface{}, error) {
	coll := m.Client.Database(m.Database).Collection(m.Collection)

	sortField := m.SortField
	if sortField == "" {
		sortField = "_id"
	}
	skip := utils.IntOffset(offset)
	findOpts := options.Find().
		SetLimit(int64(batchSize)).
		SetSkip(int64(skip)).
		SetSort(bson.M{sortField: 1})

	cursor, err := coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)

	results, consumed, err := drainCursor(ctx, cursor)
	if err != nil {
		return nil, nil, err
	}
	return results, skip + consumed, nil
}

type documentCursor interface {
	Next(ctx context.Context) bool
	Decode(v interface{}) error
	Err() error
}

// drainCursor decodes every remaining document. A document that fails to
// decode is logged and skipped, but still counts toward the consumed total
// so the next batch window starts after it instead of re-reading documents
// that already succeeded.
func drainCursor(ctx context.Context, cursor documentCursor) ([]models.Record, int, error) {
	var results []models.Record
	consumed := 0
	for cursor.Next(ctx) {
		consumed++
		var doc models.Record
		if err := cursor.Decode(&doc); err != nil {
			logger.Errorf("Error decoding mongo document: %v", err)
			continue
		}
		results = append(results, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return results, consumed, nil
}

// MongoLoader inserts transformed records into the target collection.
// Transformed records carry no natural key, so each run appends.
type MongoLoader struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

func (m *MongoLoader) Load(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	coll := m.Client.Database(m.Database).Collection(m.Collection)

	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}

	writeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := coll.InsertMany(writeCtx, docs)
	if err != nil {
		return err
	}
	logger.Infof("Mongo InsertMany: %d documents written to %s.%s", len(res.InsertedIDs), m.Database, m.Collection)
	return nil
}
