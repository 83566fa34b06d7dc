// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvested records with merge-or-insert semantics:
// an incoming record never overwrites an existing one, it union-inserts
// into the existing record's set fields. Backed by MongoDB in production
// and by an in-memory document store in tests and dry runs.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// DocumentStore is the minimal document-database surface the harvester
// needs. FindOne returns (nil, nil) when no document matches; absence is
// an expected outcome, not an error.
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error)
	Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	InsertOne(ctx context.Context, collection string, doc bson.M) error
	UpdateOne(ctx context.Context, collection string, filter, update bson.M) error
	DeleteOne(ctx context.Context, collection string, filter bson.M) error
	Close(ctx context.Context) error
}
