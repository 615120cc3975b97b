package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

type fakeQuizStore struct {
	quizzes   map[string]*models.Quiz
	answers   []*models.QuizAnswer
	insertErr error
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{quizzes: map[string]*models.Quiz{}}
}

func (f *fakeQuizStore) FindByID(_ context.Context, id string) (*models.Quiz, error) {
	quiz, ok := f.quizzes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return quiz, nil
}

func (f *fakeQuizStore) ListByOrganize(_ context.Context, organizeID string) ([]models.Quiz, error) {
	var out []models.Quiz
	for _, q := range f.quizzes {
		if q.OrganizeID == organizeID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQuizStore) Create(_ context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = fmt.Sprintf("quiz-generated-%d", len(f.quizzes)+1)
	}
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizStore) Delete(_ context.Context, id string) error {
	delete(f.quizzes, id)
	return nil
}

func (f *fakeQuizStore) HasAnswered(_ context.Context, quizID, siswaID string) (bool, error) {
	for _, a := range f.answers {
		if a.QuizID == quizID && a.SiswaID == siswaID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeQuizStore) InsertAnswer(_ context.Context, answer *models.QuizAnswer) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.answers = append(f.answers, answer)
	return nil
}

func (f *fakeQuizStore) ListAnswersBySiswa(_ context.Context, siswaID string) ([]models.QuizAnswer, error) {
	var out []models.QuizAnswer
	for _, a := range f.answers {
		if a.SiswaID == siswaID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeAwarder struct {
	awarded map[string]int
	err     error
}

func newFakeAwarder() *fakeAwarder {
	return &fakeAwarder{awarded: map[string]int{}}
}

func (f *fakeAwarder) Award(_ context.Context, siswaID string, amount int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.awarded[siswaID] += amount
	return f.awarded[siswaID], nil
}

// quizFixture wires a service over classes org-1 (guru-1) and org-2
// (guru-2).
func quizFixture() (*QuizService, *fakeQuizStore, *fakeAwarder) {
	store := newFakeQuizStore()
	resolver := &fakeGuruResolver{guruByOrganize: map[string]string{"org-1": "guru-1", "org-2": "guru-2"}}
	awarder := newFakeAwarder()
	svc := NewQuizService(store, resolver, awarder, nil, nil, zap.NewNop())
	return svc, store, awarder
}

func seedQuiz(store *fakeQuizStore) *models.Quiz {
	quiz := &models.Quiz{
		ID:            "quiz-1",
		Question:      "Surah pertama dalam Al-Quran?",
		Options:       []string{"Al-Fatihah", "Al-Baqarah", "An-Nas"},
		CorrectOption: "Al-Fatihah",
		Poin:          20,
		OrganizeID:    "org-1",
	}
	store.quizzes[quiz.ID] = quiz
	return quiz
}

func TestQuizServiceSubmitAnswer_CorrectAwardsPoints(t *testing.T) {
	svc, store, awarder := quizFixture()
	seedQuiz(store)

	answer, err := svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "Al-Fatihah"})
	require.NoError(t, err)

	assert.True(t, answer.IsCorrect)
	assert.Equal(t, 20, answer.Poin)
	assert.Equal(t, 20, awarder.awarded["siswa-1"])
}

func TestQuizServiceSubmitAnswer_IncorrectRecordsZero(t *testing.T) {
	svc, store, awarder := quizFixture()
	seedQuiz(store)

	answer, err := svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "An-Nas"})
	require.NoError(t, err)

	assert.False(t, answer.IsCorrect)
	assert.Equal(t, 0, answer.Poin)
	assert.Empty(t, awarder.awarded)
	assert.Len(t, store.answers, 1)
}

func TestQuizServiceSubmitAnswer_NearMissIsIncorrect(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store)

	// Correctness is an exact string match, nothing fuzzier.
	answer, err := svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "al-fatihah"})
	require.NoError(t, err)
	assert.False(t, answer.IsCorrect)
}

func TestQuizServiceSubmitAnswer_DuplicateRejected(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store)

	_, err := svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "Al-Fatihah"})
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "Al-Baqarah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAnswered.Code, appErrors.FromError(err).Code)
	assert.Len(t, store.answers, 1)
}

func TestQuizServiceSubmitAnswer_UniqueViolationIsDuplicate(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store)

	// A concurrent duplicate slips past HasAnswered and fails on the
	// unique constraint instead.
	store.insertErr = &pq.Error{Code: "23505"}
	_, err := svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "Al-Fatihah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAnswered.Code, appErrors.FromError(err).Code)

	// Other constraint failures stay internal errors.
	store.insertErr = &pq.Error{Code: "23503"}
	_, err = svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-2", &models.SubmitAnswerRequest{SelectedOption: "Al-Fatihah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestQuizServiceSubmitAnswer_AwardFailureSurfaced(t *testing.T) {
	svc, store, awarder := quizFixture()
	seedQuiz(store)
	awarder.err = errors.New("ledger unavailable")

	answer, err := svc.SubmitAnswer(context.Background(), "quiz-1", "siswa-1", &models.SubmitAnswerRequest{SelectedOption: "Al-Fatihah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPointsNotAwarded.Code, appErrors.FromError(err).Code)
	// The answer row still landed; the caller learns the credit failed.
	require.NotNil(t, answer)
	assert.Len(t, store.answers, 1)
}

func TestQuizServiceCreate_CorrectOptionMustBeOffered(t *testing.T) {
	svc, _, _ := quizFixture()

	_, err := svc.Create(context.Background(), "org-1", "guru-1", models.RoleGuru, &models.CreateQuizRequest{
		Question:      "Berapa jumlah juz?",
		Options:       []string{"29", "30"},
		CorrectOption: "31",
		Poin:          10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestQuizServiceCreate_OnlyOwnClass(t *testing.T) {
	svc, store, _ := quizFixture()

	req := &models.CreateQuizRequest{
		Question:      "Berapa jumlah juz?",
		Options:       []string{"29", "30"},
		CorrectOption: "30",
		Poin:          10,
	}

	// guru-1 cannot author into guru-2's class, whatever class ID the
	// request names.
	_, err := svc.Create(context.Background(), "org-2", "guru-1", models.RoleGuru, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.quizzes)

	_, err = svc.Create(context.Background(), "org-1", "guru-1", models.RoleGuru, req)
	require.NoError(t, err)
	assert.Len(t, store.quizzes, 1)

	// Admins may author anywhere.
	_, err = svc.Create(context.Background(), "org-2", "admin-1", models.RoleAdmin, req)
	require.NoError(t, err)
	assert.Len(t, store.quizzes, 2)
}

func TestQuizServiceDelete_OwnershipResolvedFromClass(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store) // belongs to org-1, taught by guru-1

	// guru-2 supplies no class hint at all anymore; ownership comes from
	// the quiz's own record.
	err := svc.Delete(context.Background(), "quiz-1", "guru-2", models.RoleGuru)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Len(t, store.quizzes, 1)

	require.NoError(t, svc.Delete(context.Background(), "quiz-1", "guru-1", models.RoleGuru))
	assert.Empty(t, store.quizzes)
}

func TestQuizServiceDelete_AdminMayDeleteAnywhere(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store)

	require.NoError(t, svc.Delete(context.Background(), "quiz-1", "admin-1", models.RoleAdmin))
	assert.Empty(t, store.quizzes)
}

func TestQuizServiceListForOrganize_SanitizesForStudents(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store)

	quizzes, err := svc.ListForOrganize(context.Background(), "org-1", true)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Empty(t, quizzes[0].CorrectOption)

	raw, err := svc.ListForOrganize(context.Background(), "org-1", false)
	require.NoError(t, err)
	assert.Equal(t, "Al-Fatihah", raw[0].CorrectOption)
}

func TestQuizServiceAnswerSummary(t *testing.T) {
	svc, store, _ := quizFixture()
	seedQuiz(store)

	store.answers = []*models.QuizAnswer{
		{QuizID: "quiz-1", SiswaID: "siswa-1", IsCorrect: true, Poin: 20},
		{QuizID: "quiz-2", SiswaID: "siswa-1", IsCorrect: false, Poin: 0},
		{QuizID: "quiz-3", SiswaID: "siswa-1", IsCorrect: true, Poin: 15},
	}

	summary, answers, err := svc.AnswerSummary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalAnswered)
	assert.Equal(t, 2, summary.CorrectCount)
	assert.Equal(t, 35, summary.TotalPoints)
	assert.Len(t, answers, 3)
}
