package mappings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lynxform/pkg/models"
)

// MongoStore persists mappings in a MongoDB collection. The mapping itself
// is stored in its wire form under "definition", so the construction-time
// validation in models owns the schema, not the database layer.
type MongoStore struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

type mappingDoc struct {
	ID         string                 `bson:"_id"`
	Name       string                 `bson:"name"`
	Active     bool                   `bson:"is_active"`
	Definition map[string]interface{} `bson:"definition"`
	CreatedAt  time.Time              `bson:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at"`
}

func (s *MongoStore) coll() *mongo.Collection {
	return s.Client.Database(s.Database).Collection(s.Collection)
}

func (s *MongoStore) List(ctx context.Context, activeOnly bool) ([]StoredMapping, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	cursor, err := s.coll().Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list type mappings: %w", err)
	}
	defer cursor.Close(ctx)

	var out []StoredMapping
	for cursor.Next(ctx) {
		var doc mappingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode type mapping: %w", err)
		}
		stored, err := doc.toStored()
		if err != nil {
			return nil, err
		}
		out = append(out, *stored)
	}
	return out, cursor.Err()
}

func (s *MongoStore) Get(ctx context.Context, id string) (*StoredMapping, error) {
	var doc mappingDoc
	err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("mapping %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch type mapping %s: %w", id, err)
	}
	return doc.toStored()
}

func (s *MongoStore) Create(ctx context.Context, m *models.TypeMapping) (*StoredMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	doc, err := newMappingDoc(uuid.NewString(), m)
	if err != nil {
		return nil, err
	}
	if _, err := s.coll().InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create type mapping: %w", err)
	}
	return doc.toStored()
}

func (s *MongoStore) Update(ctx context.Context, id string, m *models.TypeMapping) (*StoredMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := newMappingDoc(id, m)
	if err != nil {
		return nil, err
	}
	doc.CreatedAt = existing.CreatedAt

	if _, err := s.coll().ReplaceOne(ctx, bson.M{"_id": id}, doc); err != nil {
		return nil, fmt.Errorf("failed to update type mapping %s: %w", id, err)
	}
	return doc.toStored()
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete type mapping %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mapping %s: %w", id, ErrNotFound)
	}
	return nil
}

func newMappingDoc(id string, m *models.TypeMapping) (*mappingDoc, error) {
	def, err := mappingToDefinition(m)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &mappingDoc{
		ID:         id,
		Name:       m.Name,
		Active:     m.Active,
		Definition: def,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// mappingToDefinition round-trips the mapping through its JSON wire form so
// the typed Transform variants become plain documents Mongo can store.
func mappingToDefinition(m *models.TypeMapping) (map[string]interface{}, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode type mapping: %w", err)
	}
	var def map[string]interface{}
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to encode type mapping: %w", err)
	}
	return def, nil
}

func (d *mappingDoc) toStored() (*StoredMapping, error) {
	data, err := json.Marshal(d.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored mapping %s: %w", d.ID, err)
	}
	m, err := models.LoadMapping(data)
	if err != nil {
		return nil, fmt.Errorf("stored mapping %s is invalid: %w", d.ID, err)
	}
	return &StoredMapping{
		ID:        d.ID,
		Mapping:   *m,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}
