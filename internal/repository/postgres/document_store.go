package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS planning_documents (
	namespace  TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// DocumentStore implements domain.DocumentStore with one JSONB row per namespace
type DocumentStore struct {
	pool *pgxpool.Pool
}

var _ domain.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

// Connect opens a pool for databaseURL and verifies it with a ping
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the documents table when missing
func (s *DocumentStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating planning_documents: %w", err)
	}
	return nil
}

// Load returns the namespace document, or nil when it was never saved
func (s *DocumentStore) Load(ctx context.Context, namespace string) ([]byte, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		"SELECT document FROM planning_documents WHERE namespace = $1", namespace,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", namespace, err)
	}
	return doc, nil
}

// Save replaces the namespace document
func (s *DocumentStore) Save(ctx context.Context, namespace string, document []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO planning_documents (namespace, document, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (namespace) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		namespace, string(document),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", namespace, err)
	}
	return nil
}
