// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoStore implements DocumentStore on a MongoDB database.
type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to the MongoDB instance at uri and selects the named
// database. The connection is verified with a ping before use.
func OpenMongo(ctx context.Context, uri, name string) (DocumentStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging %s: %w", uri, err)
	}
	return &mongoStore{client: client, db: client.Database(name)}, nil
}

func (m *mongoStore) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := m.db.Collection(collection).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding document in %s: %w", collection, err)
	}
	return doc, nil
}

func (m *mongoStore) Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error) {
	cursor, err := m.db.Collection(collection).Find(ctx, filter, options.Find().SetBatchSize(50))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("reading cursor from %s: %w", collection, err)
	}
	return docs, nil
}

func (m *mongoStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	n, err := m.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("counting documents in %s: %w", collection, err)
	}
	return n, nil
}

func (m *mongoStore) InsertOne(ctx context.Context, collection string, doc bson.M) error {
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting into %s: %w", collection, err)
	}
	return nil
}

func (m *mongoStore) UpdateOne(ctx context.Context, collection string, filter, update bson.M) error {
	if _, err := m.db.Collection(collection).UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("updating document in %s: %w", collection, err)
	}
	return nil
}

func (m *mongoStore) DeleteOne(ctx context.Context, collection string, filter bson.M) error {
	if _, err := m.db.Collection(collection).DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("deleting document from %s: %w", collection, err)
	}
	return nil
}

func (m *mongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
