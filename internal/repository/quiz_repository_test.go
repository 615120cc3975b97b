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

func TestQuizRepositoryHasAnswered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM quiz_answers WHERE quiz_id = $1 AND siswa_id = $2 LIMIT 1")).
		WithArgs("quiz-1", "siswa-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	answered, err := repo.HasAnswered(context.Background(), "quiz-1", "siswa-1")
	require.NoError(t, err)
	assert.True(t, answered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryHasAnswered_NoRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM quiz_answers WHERE quiz_id = $1 AND siswa_id = $2 LIMIT 1")).
		WithArgs("quiz-1", "siswa-2").
		WillReturnError(sql.ErrNoRows)

	answered, err := repo.HasAnswered(context.Background(), "quiz-1", "siswa-2")
	require.NoError(t, err)
	assert.False(t, answered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryInsertAnswer(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectExec("INSERT INTO quiz_answers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	answer := &models.QuizAnswer{
		QuizID:         "quiz-1",
		SiswaID:        "siswa-1",
		SelectedOption: "Al-Fatihah",
		IsCorrect:      true,
		Poin:           5,
	}
	require.NoError(t, repo.InsertAnswer(context.Background(), answer))
	assert.NotEmpty(t, answer.ID)
	assert.False(t, answer.AnsweredAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryDelete_RemovesAnswersFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM quiz_answers WHERE quiz_id = $1")).
		WithArgs("quiz-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM quizzes WHERE id = $1")).
		WithArgs("quiz-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "quiz-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryListByOrganize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, question, options, correct_option, poin, organize_id, created_at FROM quizzes WHERE organize_id = $1 ORDER BY created_at DESC")).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "options", "correct_option", "poin", "organize_id", "created_at"}).
			AddRow("quiz-1", "Surah pertama?", "{Al-Fatihah,Al-Baqarah}", "Al-Fatihah", 5, "org-1", time.Now()))

	quizzes, err := repo.ListByOrganize(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, []string{"Al-Fatihah", "Al-Baqarah"}, []string(quizzes[0].Options))
	assert.NoError(t, mock.ExpectationsWereMet())
}
