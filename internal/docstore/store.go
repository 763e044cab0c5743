// Package docstore is a generic keyed document database: named collections
// of schemaless documents with equality/range queries. The pipeline treats
// it as a black box; the Postgres implementation below is one backend.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FetchByID when no document has the given id
var ErrNotFound = errors.New("document not found")

// Filter operator constants
const (
	OpEqual        = "=="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
)

// Filter is a simple predicate on a named document property
type Filter struct {
	Field string
	Op    string
	Value any
}

// OrderBy sorts results on a named document property
type OrderBy struct {
	Field string
	Desc  bool
}

// Document is one stored document: its id plus the raw property map
type Document struct {
	ID   string
	Data map[string]any
}

// Store defines the document database operations the pipeline consumes.
// Collections are path strings; sub-collections use slash-separated paths
// such as portfolios/<id>/stocks.
type Store interface {
	// Find returns documents in a collection matching all filters, optionally
	// ordered and limited. limit <= 0 means no limit.
	Find(ctx context.Context, collection string, filters []Filter, order *OrderBy, limit int) ([]Document, error)

	// FetchByID returns a single document, or ErrNotFound
	FetchByID(ctx context.Context, collection, id string) (Document, error)

	// Create writes a document. An empty id lets the store assign one; writing
	// an existing id replaces the document.
	Create(ctx context.Context, collection, id string, data map[string]any) (string, error)

	// Delete removes a document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, collection, id string) error
}
