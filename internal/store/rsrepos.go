// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pdiddy/rs-harvester/pkg/types"
)

// UpsertRsRepo merges a research-software classification into the
// rs_repositories collection. Identity resolves by numeric id when one is
// known, by full name otherwise (name-only mentions extracted from
// publication text carry no id). An existing record union-inserts each
// reference entry and the evaluation group; a new record is inserted
// whole.
func (s *Store) UpsertRsRepo(ctx context.Context, id int64, name string, refs []types.ReferenceEntry, source, group, language string) error {
	filter := bson.M{"id": id}
	if id == 0 {
		filter = bson.M{"full_name": name}
	}

	existing, err := s.docs.FindOne(ctx, s.names.RsRepositories, filter)
	if err != nil {
		return err
	}
	if existing != nil {
		for _, ref := range refs {
			err := s.docs.UpdateOne(ctx, s.names.RsRepositories, filter,
				bson.M{"$addToSet": bson.M{
					"references": referenceDoc(ref),
					"group":      group,
				}})
			if err != nil {
				return err
			}
		}
		return nil
	}

	references := make([]any, 0, len(refs))
	for _, ref := range refs {
		references = append(references, referenceDoc(ref))
	}
	return s.docs.InsertOne(ctx, s.names.RsRepositories, bson.M{
		"id":         id,
		"full_name":  name,
		"group":      []any{group},
		"source":     source,
		"language":   language,
		"references": references,
	})
}

// AnnotateSubject attaches the discipline hierarchy to a research-software
// record. The first annotation sets the three subject fields outright;
// later annotations union-insert element by element so reclassification
// accumulates instead of overwriting. Records without subgroups keep a
// single nil placeholder in sub_subject.
func (s *Store) AnnotateSubject(ctx context.Context, name string, subject types.Subject) error {
	filter := bson.M{"_id": name}
	doc, err := s.docs.FindOne(ctx, s.names.RsRepositories, filter)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("no research-software record %q", name)
	}

	subgroups := make([]any, 0, len(subject.Subgroups))
	for _, sg := range subject.Subgroups {
		subgroups = append(subgroups, sg)
	}
	if len(subgroups) == 0 {
		subgroups = []any{nil}
	}

	if _, annotated := doc["main_subject"]; !annotated {
		return s.docs.UpdateOne(ctx, s.names.RsRepositories, filter, bson.M{
			"$set": bson.M{
				"main_subject": toAnySlice(subject.Supergroup),
				"subject":      toAnySlice(subject.Groups),
				"sub_subject":  subgroups,
			},
		})
	}

	for _, elem := range subject.Supergroup {
		if err := s.addToSubjectField(ctx, filter, "main_subject", elem); err != nil {
			return err
		}
	}
	for _, elem := range subject.Groups {
		if err := s.addToSubjectField(ctx, filter, "subject", elem); err != nil {
			return err
		}
	}
	for _, elem := range subgroups {
		if err := s.addToSubjectField(ctx, filter, "sub_subject", elem); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addToSubjectField(ctx context.Context, filter bson.M, field string, elem any) error {
	return s.docs.UpdateOne(ctx, s.names.RsRepositories, filter,
		bson.M{"$addToSet": bson.M{field: elem}})
}

// ReconcileDOI removes a DOI reference that turned out not to resolve to
// a real publication, optionally union-inserting a replacement identifier
// (arXiv ID or title) recovered for the same publication.
func (s *Store) ReconcileDOI(ctx context.Context, repoID, badDOI string, replacement *types.ReferenceEntry) error {
	filter := bson.M{"_id": repoID}
	err := s.docs.UpdateOne(ctx, s.names.RsRepositories, filter,
		bson.M{"$pull": bson.M{
			"references": bson.M{"id": badDOI, "mode": string(types.RefDOI)},
		}})
	if err != nil {
		return err
	}
	if replacement == nil {
		return nil
	}
	return s.docs.UpdateOne(ctx, s.names.RsRepositories, filter,
		bson.M{"$addToSet": bson.M{"references": referenceDoc(*replacement)}})
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
