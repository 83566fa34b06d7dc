// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pdiddy/rs-harvester/internal/github"
)

// UpsertRepository merges one search hit into the repositories collection.
// A repository already on record only gains the search term in its
// keywords set; a new one is inserted with the harvest provenance fields.
// Identity resolves by numeric id when the hit carries one, by full name
// otherwise.
func (s *Store) UpsertRepository(ctx context.Context, repo github.Repo, keyword, source string, date time.Time) error {
	filter := bson.M{"id": repo.ID}
	if repo.ID == 0 {
		filter = bson.M{"full_name": repo.FullName}
	}
	existing, err := s.docs.FindOne(ctx, s.names.Repositories, filter)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.docs.UpdateOne(ctx, s.names.Repositories, filter,
			bson.M{"$addToSet": bson.M{"keywords": keyword}})
	}

	doc := bson.M{
		"id":               repo.ID,
		"full_name":        repo.FullName,
		"description":      repo.Description,
		"html_url":         repo.HTMLURL,
		"language":         repo.Language,
		"created_at":       repo.CreatedAt,
		"stargazers_count": repo.Stars,
		"fork":             repo.Fork,
		"owner": bson.M{
			"login": repo.Owner.Login,
			"type":  repo.Owner.Type,
		},
		"source":       source,
		"keywords":     []any{keyword},
		"request_date": date,
	}
	return s.docs.InsertOne(ctx, s.names.Repositories, doc)
}

// SetCommitDates records the resolved commit timeline on a harvested
// repository. Re-resolving overwrites; the dates are facts, not sets.
func (s *Store) SetCommitDates(ctx context.Context, id int64, first, last string) error {
	return s.docs.UpdateOne(ctx, s.names.Repositories, bson.M{"id": id},
		bson.M{"$set": bson.M{"first_commit": first, "last_commit": last}})
}
