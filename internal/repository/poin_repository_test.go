package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPoinRepositoryIncrement(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPoinRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO siswa_poin")).
		WithArgs(sqlmock.AnyArg(), "siswa-1", 25, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total_poin"}).AddRow(75))

	total, err := repo.Increment(context.Background(), "siswa-1", 25)
	require.NoError(t, err)
	assert.Equal(t, 75, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoinRepositoryFindBySiswa(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPoinRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, siswa_id, total_poin, updated_at FROM siswa_poin WHERE siswa_id = $1 LIMIT 1")).
		WithArgs("siswa-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "siswa_id", "total_poin", "updated_at"}).
			AddRow("p1", "siswa-1", 120, time.Now()))

	poin, err := repo.FindBySiswa(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 120, poin.TotalPoin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoinRepositoryFindBySiswa_MissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPoinRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, siswa_id, total_poin, updated_at FROM siswa_poin WHERE siswa_id = $1 LIMIT 1")).
		WithArgs("siswa-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySiswa(context.Background(), "siswa-x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoinRepositoryLeaderboard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPoinRepository(db)

	mock.ExpectQuery("SELECT p.id, p.siswa_id, p.total_poin, p.updated_at").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "siswa_id", "total_poin", "updated_at"}).
			AddRow("p1", "siswa-1", 500, time.Now()).
			AddRow("p2", "siswa-2", 300, time.Now()))

	rows, err := repo.Leaderboard(context.Background(), "org-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 500, rows[0].TotalPoin)
	assert.NoError(t, mock.ExpectationsWereMet())
}
