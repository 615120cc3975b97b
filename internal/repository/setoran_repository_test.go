package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
)

func TestSetoranRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSetoranRepository(db)

	mock.ExpectExec("INSERT INTO setoran").
		WillReturnResult(sqlmock.NewResult(1, 1))

	setoran := &models.Setoran{
		SiswaID:    "siswa-1",
		GuruID:     "guru-1",
		OrganizeID: "org-1",
		FileURL:    "https://cdn.example.com/audio/rec.m4a",
		Jenis:      models.JenisHafalan,
		Tanggal:    time.Now().UTC(),
		Status:     models.StatusPending,
		Surah:      "Al-Mulk",
	}
	require.NoError(t, repo.Create(context.Background(), setoran))
	assert.NotEmpty(t, setoran.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetoranRepositoryList_FiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSetoranRepository(db)

	columns := []string{"id", "siswa_id", "guru_id", "organize_id", "file_url", "jenis", "tanggal", "status", "catatan", "surah", "juz", "poin", "created_at", "updated_at"}
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM setoran WHERE 1=1 AND siswa_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("siswa-1", models.StatusPending).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("s1", "siswa-1", "guru-1", "org-1", "https://cdn/x.m4a", "hafalan", now, "pending", nil, "Al-Mulk", nil, 0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM setoran WHERE 1=1 AND siswa_id = $1 AND status = $2")).
		WithArgs("siswa-1", models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.StatusPending
	list, total, err := repo.List(context.Background(), models.SetoranFilter{SiswaID: "siswa-1", Status: &status})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetoranRepositoryUpdateReview(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSetoranRepository(db)

	catatan := "bagus"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE setoran SET status = $2, poin = $3, catatan = COALESCE($4, catatan), updated_at = $5 WHERE id = $1")).
		WithArgs("s1", models.StatusDiterima, 10, &catatan, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateReview(context.Background(), "s1", models.StatusDiterima, 10, &catatan))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetoranRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSetoranRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS n FROM setoran WHERE siswa_id = $1 GROUP BY status")).
		WithArgs("siswa-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "n"}).
			AddRow("pending", 2).
			AddRow("selesai", 5))

	counts, err := repo.CountByStatus(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StatusPending])
	assert.Equal(t, 5, counts[models.StatusSelesai])
	assert.NoError(t, mock.ExpectationsWereMet())
}
