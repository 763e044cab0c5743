package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStore wraps a containerized Postgres document store with cleanup
type TestStore struct {
	*Postgres
	container testcontainers.Container
}

// SetupTestStore starts a PostgreSQL container, runs migrations, and returns
// a connected store
func SetupTestStore(t *testing.T) *TestStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	store, err := New(connStr)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	ts := &TestStore{Postgres: store, container: pgContainer}
	if err := ts.runMigrations(); err != nil {
		ts.Cleanup(t)
		t.Fatalf("failed to run migrations: %v", err)
	}
	return ts
}

func (ts *TestStore) runMigrations() error {
	driver, err := postgres.WithInstance(ts.conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	_, filename, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "db", "migrations")

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Cleanup closes the store and terminates the container
func (ts *TestStore) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if ts.Postgres != nil {
		ts.Postgres.Close()
	}
	if ts.container != nil {
		if err := ts.container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}
}

// Truncate clears the documents table for test isolation
func (ts *TestStore) Truncate(t *testing.T) {
	t.Helper()
	if _, err := ts.conn.Exec("TRUNCATE TABLE documents"); err != nil {
		t.Fatalf("failed to truncate documents: %v", err)
	}
}
