// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// memoryStore implements DocumentStore on in-process maps, interpreting
// the update operators the harvester actually issues: $set, $addToSet
// (with and without $each), and $pull. It backs tests and dry runs; it is
// not a general MongoDB emulation.
type memoryStore struct {
	mu          sync.Mutex
	collections map[string][]bson.M
}

// OpenMemory returns an empty in-memory document store.
func OpenMemory() DocumentStore {
	return &memoryStore{collections: make(map[string][]bson.M)}
}

func (m *memoryStore) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			return doc, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []bson.M
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *memoryStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) InsertOne(ctx context.Context, collection string, doc bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], doc)
	return nil
}

func (m *memoryStore) UpdateOne(ctx context.Context, collection string, filter, update bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			applyUpdate(doc, update)
			return nil
		}
	}
	return nil
}

func (m *memoryStore) DeleteOne(ctx context.Context, collection string, filter bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			m.collections[collection] = append(docs[:i], docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryStore) Close(ctx context.Context) error { return nil }

// matches reports whether every filter field, dotted paths included,
// equals the corresponding document value.
func matches(doc bson.M, filter bson.M) bool {
	for path, want := range filter {
		got, ok := lookup(doc, path)
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// lookup resolves a dotted field path such as "identifier.id".
func lookup(doc bson.M, path string) (any, bool) {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func applyUpdate(doc bson.M, update bson.M) {
	for op, fields := range update {
		spec, ok := fields.(bson.M)
		if !ok {
			continue
		}
		switch op {
		case "$set":
			for field, value := range spec {
				doc[field] = value
			}
		case "$addToSet":
			for field, value := range spec {
				addToSet(doc, field, value)
			}
		case "$pull":
			for field, value := range spec {
				pull(doc, field, value)
			}
		}
	}
}

func addToSet(doc bson.M, field string, value any) {
	elems := []any{value}
	if spec, ok := value.(bson.M); ok {
		if each, ok := spec["$each"].([]any); ok {
			elems = each
		}
	}

	set, _ := doc[field].([]any)
	for _, elem := range elems {
		if !containsElem(set, elem) {
			set = append(set, elem)
		}
	}
	doc[field] = set
}

func pull(doc bson.M, field string, value any) {
	set, _ := doc[field].([]any)
	var kept []any
	for _, elem := range set {
		if !pullMatches(elem, value) {
			kept = append(kept, elem)
		}
	}
	doc[field] = kept
}

// pullMatches follows the operator's document-condition form: a bson.M
// value matches an array element when every condition field equals the
// element's field; any other value must equal the element outright.
func pullMatches(elem, value any) bool {
	cond, ok := value.(bson.M)
	if !ok {
		return reflect.DeepEqual(elem, value)
	}
	elemDoc, ok := elem.(bson.M)
	if !ok {
		return false
	}
	for field, want := range cond {
		if !reflect.DeepEqual(elemDoc[field], want) {
			return false
		}
	}
	return true
}

func containsElem(set []any, elem any) bool {
	for _, e := range set {
		if reflect.DeepEqual(e, elem) {
			return true
		}
	}
	return false
}
