package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/rxnguard/pkg/errors"
)

func newMockStore(t *testing.T) (*DocumentStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDocumentStore(NewConnectionWithDB(db, logging.NewNopLogger())), mock
}

func TestDocumentStore_Load(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentSQL)).
		WithArgs("reaction_stats").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"A":{"total_runs":1}}`)))

	data, err := store.Load(context.Background(), "reaction_stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":{"total_runs":1}}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_Load_Missing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentSQL)).
		WithArgs("failed_reactions").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	data, err := store.Load(context.Background(), "failed_reactions")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_Load_Error(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentSQL)).
		WillReturnError(errors.New("relation does not exist"))

	_, err := store.Load(context.Background(), "failed_reactions")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestDocumentStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertDocumentSQL)).
		WithArgs("failed_reactions", `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), "failed_reactions", []byte(`[]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_Save_Error(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertDocumentSQL)).
		WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), "failed_reactions", []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save document failed_reactions")
}

func TestDocumentStore_PingAndClose(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPing()
	mock.ExpectClose()

	assert.Equal(t, "postgres", store.Name())
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Personal.AI order the ending
