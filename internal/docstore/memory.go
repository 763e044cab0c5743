package docstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by unit tests and local runs.
// It applies the same filter semantics as the Postgres backend.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
	}
}

// Find returns documents in a collection matching all filters
func (m *MemoryStore) Find(ctx context.Context, collection string, filters []Filter, order *OrderBy, limit int) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for id, data := range m.collections[collection] {
		match := true
		for _, f := range filters {
			ok, err := matchFilter(data, f)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			docs = append(docs, Document{ID: id, Data: copyData(data)})
		}
	}

	if order != nil {
		sort.Slice(docs, func(i, j int) bool {
			a := fmt.Sprint(docs[i].Data[order.Field])
			b := fmt.Sprint(docs[j].Data[order.Field])
			if order.Desc {
				return a > b
			}
			return a < b
		})
	} else {
		// Stable output for tests
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// FetchByID returns a single document by id
func (m *MemoryStore) FetchByID(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: copyData(data)}, nil
}

// Create writes a document, replacing any existing document with the same id
func (m *MemoryStore) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = copyData(data)
	return id, nil
}

// Delete removes a document; absent documents are a no-op
func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

// Count returns the number of documents in a collection
func (m *MemoryStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func matchFilter(data map[string]any, f Filter) (bool, error) {
	v, ok := data[f.Field]
	if !ok {
		return false, nil
	}

	// Numeric comparison when both sides parse as numbers, text otherwise,
	// mirroring the ::numeric cast in the Postgres backend.
	av, aerr := strconv.ParseFloat(fmt.Sprint(v), 64)
	bv, berr := strconv.ParseFloat(fmt.Sprint(f.Value), 64)

	var cmp int
	if aerr == nil && berr == nil {
		switch {
		case av < bv:
			cmp = -1
		case av > bv:
			cmp = 1
		}
	} else {
		a, b := fmt.Sprint(v), fmt.Sprint(f.Value)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	}

	switch f.Op {
	case OpEqual:
		return cmp == 0, nil
	case OpGreater:
		return cmp > 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	case OpLess:
		return cmp < 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("unsupported filter operator: %s", f.Op)
	}
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
