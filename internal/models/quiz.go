package models

import (
	"time"

	"github.com/lib/pq"
)

// Quiz is a multiple-choice question scoped to one organize.
type Quiz struct {
	ID            string         `db:"id" json:"id"`
	Question      string         `db:"question" json:"question"`
	Options       pq.StringArray `db:"options" json:"options"`
	CorrectOption string         `db:"correct_option" json:"correct_option,omitempty"`
	Poin          int            `db:"poin" json:"poin"`
	OrganizeID    string         `db:"organize_id" json:"organize_id"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Sanitized returns a copy safe for student consumption, with the correct
// option stripped.
func (q Quiz) Sanitized() Quiz {
	q.CorrectOption = ""
	return q
}

// QuizAnswer records a student's single attempt at a quiz. Poin carries
// the awarded value: the quiz's poin when correct, zero otherwise.
type QuizAnswer struct {
	ID             string    `db:"id" json:"id"`
	QuizID         string    `db:"quiz_id" json:"quiz_id"`
	SiswaID        string    `db:"siswa_id" json:"siswa_id"`
	SelectedOption string    `db:"selected_option" json:"selected_option"`
	IsCorrect      bool      `db:"is_correct" json:"is_correct"`
	Poin           int       `db:"poin" json:"poin"`
	AnsweredAt     time.Time `db:"answered_at" json:"answered_at"`
}

// CreateQuizRequest is the payload for authoring a quiz.
type CreateQuizRequest struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectOption string   `json:"correct_option" validate:"required"`
	Poin          int      `json:"poin" validate:"min=0"`
}

// SubmitAnswerRequest is a student's answer to one quiz.
type SubmitAnswerRequest struct {
	SelectedOption string `json:"selected_option" validate:"required"`
}

// AnswerSummary aggregates a student's quiz activity for display.
type AnswerSummary struct {
	TotalAnswered int `json:"total_answered"`
	CorrectCount  int `json:"correct_count"`
	TotalPoints   int `json:"total_points"`
}
