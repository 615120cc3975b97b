package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
)

var userColumnsList = []string{"id", "email", "password_hash", "name", "role", "type", "organize_id", "active", "last_login", "created_at", "updated_at"}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("siswa@sekolah.id").
		WillReturnRows(sqlmock.NewRows(userColumnsList).
			AddRow("u1", "siswa@sekolah.id", "hash", "Ahmad", "siswa", nil, nil, true, nil, now, now))

	user, err := repo.FindByEmail(context.Background(), "siswa@sekolah.id")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSiswa, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmail_NotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("nobody@sekolah.id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@sekolah.id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("taken@sekolah.id").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("free@sekolah.id").
		WillReturnError(sql.ErrNoRows)

	taken, err := repo.ExistsByEmail(context.Background(), "taken@sekolah.id")
	require.NoError(t, err)
	assert.True(t, taken)

	free, err := repo.ExistsByEmail(context.Background(), "free@sekolah.id")
	require.NoError(t, err)
	assert.False(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:        "baru@sekolah.id",
		PasswordHash: "hash",
		Name:         "Siswa Baru",
		Role:         models.RoleSiswa,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryIsChildOf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM parent_children WHERE ortu_id = $1 AND siswa_id = $2 LIMIT 1")).
		WithArgs("ortu-1", "siswa-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM parent_children WHERE ortu_id = $1 AND siswa_id = $2 LIMIT 1")).
		WithArgs("ortu-1", "siswa-9").
		WillReturnError(sql.ErrNoRows)

	linked, err := repo.IsChildOf(context.Background(), "ortu-1", "siswa-1")
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = repo.IsChildOf(context.Background(), "ortu-1", "siswa-9")
	require.NoError(t, err)
	assert.False(t, linked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRevokeUserRefreshTokens(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE user_id = $1 AND revoked = false")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListChildren(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery("JOIN parent_children pc ON pc.siswa_id = u.id").
		WithArgs("ortu-1").
		WillReturnRows(sqlmock.NewRows(userColumnsList).
			AddRow("s1", "anak1@sekolah.id", "hash", "Anak Satu", "siswa", nil, "org-1", true, nil, now, now).
			AddRow("s2", "anak2@sekolah.id", "hash", "Anak Dua", "siswa", nil, "org-1", true, nil, now, now))

	children, err := repo.ListChildren(context.Background(), "ortu-1")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Anak Satu", children[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
