package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

// QuizStore abstracts quiz and answer persistence.
type QuizStore interface {
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	ListByOrganize(ctx context.Context, organizeID string) ([]models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id string) error
	HasAnswered(ctx context.Context, quizID, siswaID string) (bool, error)
	InsertAnswer(ctx context.Context, answer *models.QuizAnswer) error
	ListAnswersBySiswa(ctx context.Context, siswaID string) ([]models.QuizAnswer, error)
}

// QuizService implements the quiz flow: teachers author questions for
// their class, students answer each at most once, and correct answers
// credit the quiz's point value.
type QuizService struct {
	repo      QuizStore
	organizes OrganizeGuruStore
	points    PointAwarder
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewQuizService constructs a QuizService.
func NewQuizService(repo QuizStore, organizes OrganizeGuruStore, points PointAwarder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{repo: repo, organizes: organizes, points: points, metrics: metrics, validate: validate, logger: logger}
}

// verifyClassTeacher checks that the class's assigned teacher, resolved
// from the organize record rather than from caller input, is the acting
// user. Admins pass unconditionally.
func (s *QuizService) verifyClassTeacher(ctx context.Context, organizeID, userID string, role models.UserRole) error {
	if role == models.RoleAdmin {
		return nil
	}
	owner, err := s.organizes.GuruID(ctx, organizeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class teacher")
	}
	if owner != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "class belongs to a different teacher")
	}
	return nil
}

// Create authors a new quiz for the class. The author must be the
// class's assigned teacher (or an admin), and the correct option must be
// one of the offered options.
func (s *QuizService) Create(ctx context.Context, organizeID, authorID string, authorRole models.UserRole, req *models.CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	if organizeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "organize_id is required")
	}
	if err := s.verifyClassTeacher(ctx, organizeID, authorID, authorRole); err != nil {
		return nil, err
	}

	found := false
	for _, opt := range req.Options {
		if opt == req.CorrectOption {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrValidation, "correct_option must be one of the options")
	}

	quiz := &models.Quiz{
		Question:      strings.TrimSpace(req.Question),
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Poin:          req.Poin,
		OrganizeID:    organizeID,
	}
	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}

	s.logger.Info("quiz created",
		zap.String("quiz_id", quiz.ID),
		zap.String("organize_id", organizeID))

	return quiz, nil
}

// Delete removes a quiz and its answers. Ownership is resolved from the
// quiz's own class record: only that class's assigned teacher or an
// admin may delete.
func (s *QuizService) Delete(ctx context.Context, id, requesterID string, role models.UserRole) error {
	quiz, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	if err := s.verifyClassTeacher(ctx, quiz.OrganizeID, requesterID, role); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete quiz")
	}
	return nil
}

// ListForOrganize returns a class's quizzes. When sanitize is true the
// correct option is stripped from every quiz, which is how students and
// parents see the list.
func (s *QuizService) ListForOrganize(ctx context.Context, organizeID string, sanitize bool) ([]models.Quiz, error) {
	if organizeID == "" {
		return nil, appErrors.ErrNoOrganize
	}
	quizzes, err := s.repo.ListByOrganize(ctx, organizeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	if !sanitize {
		return quizzes, nil
	}
	sanitized := make([]models.Quiz, len(quizzes))
	for i, q := range quizzes {
		sanitized[i] = q.Sanitized()
	}
	return sanitized, nil
}

// SubmitAnswer grades and records a student's single attempt at a quiz.
// Correctness is an exact match against the stored option. Points for a
// correct answer are credited through the ledger; if the credit fails
// after the answer row landed, the partial state is surfaced as
// POINTS_NOT_AWARDED rather than silently swallowed.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID, siswaID string, req *models.SubmitAnswerRequest) (*models.QuizAnswer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	quiz, err := s.repo.FindByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	answered, err := s.repo.HasAnswered(ctx, quizID, siswaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check prior answer")
	}
	if answered {
		return nil, appErrors.ErrAlreadyAnswered
	}

	correct := req.SelectedOption == quiz.CorrectOption
	poin := 0
	if correct {
		poin = quiz.Poin
	}

	answer := &models.QuizAnswer{
		QuizID:         quizID,
		SiswaID:        siswaID,
		SelectedOption: req.SelectedOption,
		IsCorrect:      correct,
		Poin:           poin,
	}
	if err := s.repo.InsertAnswer(ctx, answer); err != nil {
		// The unique constraint closes the race between HasAnswered and
		// the insert: a concurrent duplicate lands here.
		if isUniqueViolation(err) {
			return nil, appErrors.ErrAlreadyAnswered
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record answer")
	}

	if s.metrics != nil {
		s.metrics.RecordQuizAnswer(correct)
	}

	if poin > 0 {
		if _, err := s.points.Award(ctx, siswaID, poin); err != nil {
			s.logger.Error("answer recorded but points not credited",
				zap.String("quiz_id", quizID),
				zap.String("siswa_id", siswaID),
				zap.Error(err))
			return answer, appErrors.ErrPointsNotAwarded
		}
	}

	s.logger.Info("quiz answered",
		zap.String("quiz_id", quizID),
		zap.String("siswa_id", siswaID),
		zap.Bool("correct", correct))

	return answer, nil
}

// AnswerSummary aggregates a student's quiz history.
func (s *QuizService) AnswerSummary(ctx context.Context, siswaID string) (*models.AnswerSummary, []models.QuizAnswer, error) {
	answers, err := s.repo.ListAnswersBySiswa(ctx, siswaID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list answers")
	}

	summary := &models.AnswerSummary{TotalAnswered: len(answers)}
	for _, a := range answers {
		if a.IsCorrect {
			summary.CorrectCount++
		}
		summary.TotalPoints += a.Poin
	}
	return summary, answers, nil
}

// isUniqueViolation reports a postgres unique constraint failure
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
