package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
)

// QuizRepository manages persistence for quizzes and answers.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// FindByID fetches a quiz by ID.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT id, question, options, correct_option, poin, organize_id, created_at FROM quizzes WHERE id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ListByOrganize returns the quizzes for a class, newest first.
func (r *QuizRepository) ListByOrganize(ctx context.Context, organizeID string) ([]models.Quiz, error) {
	const query = `SELECT id, question, options, correct_option, poin, organize_id, created_at FROM quizzes WHERE organize_id = $1 ORDER BY created_at DESC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, organizeID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quizzes (id, question, options, correct_option, poin, organize_id, created_at)
        VALUES (:id, :question, :options, :correct_option, :poin, :organize_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// Delete removes a quiz and its recorded answers.
func (r *QuizRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quiz_answers WHERE quiz_id = $1`, id); err != nil {
		return fmt.Errorf("delete quiz answers: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

// HasAnswered reports whether the student already answered the quiz.
func (r *QuizRepository) HasAnswered(ctx context.Context, quizID, siswaID string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM quiz_answers WHERE quiz_id = $1 AND siswa_id = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, quizID, siswaID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check quiz answer: %w", err)
	}
	return true, nil
}

// InsertAnswer records a student's answer. The unique (quiz_id, siswa_id)
// constraint makes re-submission a store-level conflict, not just an
// advisory client check.
func (r *QuizRepository) InsertAnswer(ctx context.Context, answer *models.QuizAnswer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now().UTC()
	}
	const query = `INSERT INTO quiz_answers (id, quiz_id, siswa_id, selected_option, is_correct, poin, answered_at)
        VALUES (:id, :quiz_id, :siswa_id, :selected_option, :is_correct, :poin, :answered_at)`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("insert quiz answer: %w", err)
	}
	return nil
}

// ListAnswersBySiswa returns a student's recorded answers.
func (r *QuizRepository) ListAnswersBySiswa(ctx context.Context, siswaID string) ([]models.QuizAnswer, error) {
	const query = `SELECT id, quiz_id, siswa_id, selected_option, is_correct, poin, answered_at FROM quiz_answers WHERE siswa_id = $1 ORDER BY answered_at DESC`
	var answers []models.QuizAnswer
	if err := r.db.SelectContext(ctx, &answers, query, siswaID); err != nil {
		return nil, fmt.Errorf("list quiz answers: %w", err)
	}
	return answers, nil
}
