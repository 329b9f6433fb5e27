package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/turtacn/rxnguard/pkg/errors"
)

const (
	selectDocumentSQL = `SELECT payload FROM telemetry_documents WHERE name = $1`
	upsertDocumentSQL = `INSERT INTO telemetry_documents (name, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// DocumentStore keeps telemetry documents as JSONB rows, one per name.  A
// single upsert statement replaces a document, so readers never observe a
// partial write.
type DocumentStore struct {
	conn *Connection
}

// NewDocumentStore wraps an open connection.  The telemetry_documents table
// must exist; see Connection.Migrate.
func NewDocumentStore(conn *Connection) *DocumentStore {
	return &DocumentStore{conn: conn}
}

func (s *DocumentStore) Name() string { return "postgres" }

// Load returns nil when name was never saved.
func (s *DocumentStore) Load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.conn.DB().QueryRowContext(ctx, selectDocumentSQL, name).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load document "+name)
	}
	return payload, nil
}

func (s *DocumentStore) Save(ctx context.Context, name string, data []byte) error {
	if _, err := s.conn.DB().ExecContext(ctx, upsertDocumentSQL, name, string(data)); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "save document "+name)
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.conn.HealthCheck(ctx)
}

func (s *DocumentStore) Close() error {
	return s.conn.Close()
}

//Personal.AI order the ending
