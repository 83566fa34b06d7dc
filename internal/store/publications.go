// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pdiddy/rs-harvester/pkg/types"
)

// UpsertPublication merges repository associations into the publications
// collection. Identity is the (id, mode) pair: a publication already keyed
// by that pair gains the repository name in its repos set; otherwise a new
// publication record is inserted for the identifier. The same id string
// under a different mode is a different publication.
func (s *Store) UpsertPublication(ctx context.Context, refs []types.ReferenceEntry, repoName string) error {
	for _, ref := range refs {
		filter := bson.M{"identifier.id": ref.ID, "identifier.mode": string(ref.Mode)}
		existing, err := s.docs.FindOne(ctx, s.names.Publications, filter)
		if err != nil {
			return err
		}
		if existing != nil {
			err := s.docs.UpdateOne(ctx, s.names.Publications, filter,
				bson.M{"$addToSet": bson.M{"repos": repoName}})
			if err != nil {
				return err
			}
			continue
		}
		err = s.docs.InsertOne(ctx, s.names.Publications, bson.M{
			"identifier": referenceDoc(ref),
			"repos":      []any{repoName},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SavePublication stores one harvested publication document as-is. The
// arXiv pass deduplicates by arXiv ID before calling.
func (s *Store) SavePublication(ctx context.Context, pub types.Publication) error {
	doc, err := toDoc(pub)
	if err != nil {
		return err
	}
	return s.docs.InsertOne(ctx, s.names.Publications, doc)
}

// HasPublication reports whether a publication with the given arXiv ID is
// already on record.
func (s *Store) HasPublication(ctx context.Context, arxivID string) (bool, error) {
	doc, err := s.docs.FindOne(ctx, s.names.Publications, bson.M{"arxiv_id": arxivID})
	return doc != nil, err
}

// toDoc renders a tagged struct in its stored document form.
func toDoc(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}
