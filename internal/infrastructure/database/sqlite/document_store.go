// Package sqlite stores telemetry documents in a single-file SQLite database
// through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/turtacn/rxnguard/pkg/errors"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`

// DocumentStore keeps one row per document name.
type DocumentStore struct {
	db   *sql.DB
	path string
	once sync.Once
}

// Open opens or creates the database at path.  ":memory:" gives a private
// in-memory database.
func Open(path string) (*DocumentStore, error) {
	if path == "" {
		path = filepath.Join("data", "telemetry.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !stderrors.Is(err, os.ErrExist) {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "create sqlite directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "open sqlite")
	}
	// One writer; an in-memory database also lives only as long as its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "create documents table")
	}
	return &DocumentStore{db: db, path: path}, nil
}

func (s *DocumentStore) Name() string { return "sqlite" }

// Path is the database file.
func (s *DocumentStore) Path() string { return s.path }

// DB exposes the handle for maintenance queries.
func (s *DocumentStore) DB() *sql.DB { return s.db }

func (s *DocumentStore) Load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE name = ?`, name).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load document "+name)
	}
	return payload, nil
}

func (s *DocumentStore) Save(ctx context.Context, name string, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "begin")
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents(name, payload) VALUES(?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload,
		 updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		name, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "save document "+name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "commit document "+name)
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "sqlite unavailable")
	}
	return nil
}

func (s *DocumentStore) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}

//Personal.AI order the ending
