package repository

import (
	"context"
	"fmt"

	"github.com/Nikola31267/food-management/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepo reads whole collections from a MongoDB database. It never writes.
type MongoRepo struct {
	db *mongo.Database
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{db: db}
}

// Each runs a full-collection scan (no filter, projection or limit) and calls
// fn for every document in storage order. A missing collection yields no
// documents. Iteration stops at the first error returned by fn.
func (m *MongoRepo) Each(ctx context.Context, collection string, fn func(document.Document) error) error {
	cur, err := m.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var d bson.D
		if err := cur.Decode(&d); err != nil {
			return fmt.Errorf("decode %s: %w", collection, err)
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("read %s: %w", collection, err)
	}
	return nil
}

// List materializes every document of the collection. The result is never nil.
func (m *MongoRepo) List(ctx context.Context, collection string) ([]document.Document, error) {
	return list(ctx, m, collection)
}

type eacher interface {
	Each(ctx context.Context, collection string, fn func(document.Document) error) error
}

func list(ctx context.Context, src eacher, collection string) ([]document.Document, error) {
	out := []document.Document{}
	err := src.Each(ctx, collection, func(d document.Document) error {
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
