package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/fakedetect/internal/domain"
)

func newMock(t *testing.T) (*PostgresGenerationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresGenerationRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS generations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO generations")).
		WithArgs("stylegan2", "1", "gan", "g1", ".png", "stylegan2", "http://gan/image/stylegan2/g1.png").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, created))

	g := &domain.Generation{
		ModelName:    "stylegan2",
		ModelVersion: "1",
		Backend:      "gan",
		UUID:         "g1",
		Type:         ".png",
		Subdir:       "stylegan2",
		URL:          "http://gan/image/stylegan2/g1.png",
	}
	require.NoError(t, repo.Save(context.Background(), g))

	assert.Equal(t, int64(7), g.ID)
	assert.Equal(t, created, g.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO generations")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), &domain.Generation{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestListRecent(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	columns := []string{"id", "model_name", "model_version", "backend", "uuid", "type", "subdir", "url", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM generations")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(2, "dcgan", "1", "", "g2", ".jpg", "dcgan", "http://default/image/dcgan/g2.jpg", created).
			AddRow(1, "stylegan2", "1", "gan", "g1", ".png", "stylegan2", "http://gan/image/stylegan2/g1.png", created))

	got, err := repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dcgan", got[0].ModelName)
	assert.Equal(t, "gan", got[1].Backend)
	assert.NoError(t, mock.ExpectationsWereMet())
}
