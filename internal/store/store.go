// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pdiddy/rs-harvester/pkg/types"
)

// Store is the harvester's persistence handle: one document store plus
// the collection names records go to. It is opened once at process start
// and passed to every component that persists records.
type Store struct {
	docs  DocumentStore
	names types.CollectionNames
}

// New wraps an already-open document store. Tests and dry runs pair it
// with OpenMemory.
func New(docs DocumentStore, names types.CollectionNames) *Store {
	return &Store{docs: docs, names: names}
}

// Open connects to the configured MongoDB instance.
func Open(ctx context.Context, cfg types.DatabaseConfig) (*Store, error) {
	cfg.Defaults()
	docs, err := OpenMongo(ctx, cfg.URI, cfg.Name)
	if err != nil {
		return nil, err
	}
	return New(docs, cfg.Collections), nil
}

// Close releases the underlying document store.
func (s *Store) Close(ctx context.Context) error {
	return s.docs.Close(ctx)
}

// CountRsRepos returns the number of research-software records matching
// the filter; a nil filter counts everything.
func (s *Store) CountRsRepos(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.docs.Count(ctx, s.names.RsRepositories, filter)
}

// referenceDoc renders a reference entry in its stored document form.
func referenceDoc(entry types.ReferenceEntry) bson.M {
	return bson.M{"id": entry.ID, "mode": string(entry.Mode)}
}
