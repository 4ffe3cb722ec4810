// Package sqlite keeps the planning documents in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS planning_documents (
	namespace  TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// DocumentStore implements domain.DocumentStore on a SQLite file
type DocumentStore struct {
	db *sql.DB
}

var _ domain.DocumentStore = (*DocumentStore)(nil)

// Open opens or creates the database at path. ":memory:" keeps everything in memory.
func Open(path string) (*DocumentStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DocumentStore{db: db}, nil
}

// Close closes the database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// Load returns the namespace document, or nil when it was never saved
func (s *DocumentStore) Load(ctx context.Context, namespace string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM planning_documents WHERE namespace = ?", namespace,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", namespace, err)
	}
	return []byte(doc), nil
}

// Save replaces the namespace document
func (s *DocumentStore) Save(ctx context.Context, namespace string, document []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO planning_documents (namespace, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		namespace, string(document), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", namespace, err)
	}
	return nil
}
