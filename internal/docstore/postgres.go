package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Postgres stores documents in a single jsonb-backed table, keyed by
// (collection, id). See db/migrations for the schema.
type Postgres struct {
	conn *sql.DB
}

// New connects to PostgreSQL and verifies the connection
func New(connString string) (*Postgres, error) {
	conn, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{conn: conn}, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.conn.Close()
}

// Find returns documents in a collection matching all filters
func (p *Postgres) Find(ctx context.Context, collection string, filters []Filter, order *OrderBy, limit int) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	args := []any{collection}
	for _, f := range filters {
		clause, arg, err := filterClause(f, len(args)+1)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(clause)
		args = append(args, arg)
	}

	if order != nil {
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY data->>'%s' %s", sanitizeField(order.Field), dir)
	}
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}

	rows, err := p.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}

// FetchByID returns a single document by id
func (p *Postgres) FetchByID(ctx context.Context, collection, id string) (Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := p.conn.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch document %s/%s: %w", collection, id, err)
	}

	doc := Document{ID: id}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return Document{}, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return doc, nil
}

// Create writes a document, replacing any existing document with the same id
func (p *Postgres) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := p.conn.ExecContext(ctx, query, collection, id, raw); err != nil {
		return "", fmt.Errorf("failed to create document %s/%s: %w", collection, id, err)
	}
	return id, nil
}

// Delete removes a document; absent documents are a no-op
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := p.conn.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

// filterClause renders one filter as SQL against the jsonb data column.
// String values compare as text, everything else casts to numeric.
func filterClause(f Filter, argPos int) (string, any, error) {
	switch f.Op {
	case OpEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
	default:
		return "", nil, fmt.Errorf("unsupported filter operator: %s", f.Op)
	}
	op := f.Op
	if op == OpEqual {
		op = "="
	}

	field := sanitizeField(f.Field)
	switch v := f.Value.(type) {
	case string:
		return fmt.Sprintf("data->>'%s' %s $%d", field, op, argPos), v, nil
	case bool:
		return fmt.Sprintf("(data->>'%s')::boolean %s $%d", field, op, argPos), v, nil
	default:
		return fmt.Sprintf("(data->>'%s')::numeric %s $%d", field, op, argPos), fmt.Sprint(v), nil
	}
}

// sanitizeField strips characters that could escape the jsonb accessor.
// Field names come from code, never from user input.
func sanitizeField(field string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == '\\' {
			return -1
		}
		return r
	}, field)
}
