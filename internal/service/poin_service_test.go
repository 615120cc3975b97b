package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

type fakePoinRepo struct {
	totals     map[string]int
	increments int
	findErr    error
	incErr     error
}

func newFakePoinRepo() *fakePoinRepo {
	return &fakePoinRepo{totals: map[string]int{}}
}

func (f *fakePoinRepo) Increment(_ context.Context, siswaID string, amount int) (int, error) {
	if f.incErr != nil {
		return 0, f.incErr
	}
	f.increments++
	f.totals[siswaID] += amount
	return f.totals[siswaID], nil
}

func (f *fakePoinRepo) FindBySiswa(_ context.Context, siswaID string) (*models.SiswaPoin, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	total, ok := f.totals[siswaID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SiswaPoin{SiswaID: siswaID, TotalPoin: total}, nil
}

func (f *fakePoinRepo) Leaderboard(context.Context, string, int) ([]models.SiswaPoin, error) {
	return nil, nil
}

func TestPoinServiceAward_SumsSequence(t *testing.T) {
	repo := newFakePoinRepo()
	svc := NewPoinService(repo, nil, nil, zap.NewNop())

	amounts := []int{10, 25, 0, 15}
	var total int
	var err error
	for _, amount := range amounts {
		total, err = svc.Award(context.Background(), "siswa-1", amount)
		require.NoError(t, err)
	}

	assert.Equal(t, 50, total)

	got, err := svc.Total(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 50, got)
}

func TestPoinServiceAward_ZeroTouchesNothing(t *testing.T) {
	repo := newFakePoinRepo()
	svc := NewPoinService(repo, nil, nil, zap.NewNop())

	// No ledger row yet: a zero award reports zero without creating one.
	total, err := svc.Award(context.Background(), "siswa-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, repo.totals)
	assert.Equal(t, 0, repo.increments)

	_, err = svc.Award(context.Background(), "siswa-1", 30)
	require.NoError(t, err)

	total, err = svc.Award(context.Background(), "siswa-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	assert.Equal(t, 1, repo.increments)
}

func TestPoinServiceAward_RejectsNegative(t *testing.T) {
	repo := newFakePoinRepo()
	svc := NewPoinService(repo, nil, nil, zap.NewNop())

	_, err := svc.Award(context.Background(), "siswa-1", -5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.totals)
}

func TestPoinServiceTotal_MissingLedgerRowIsZero(t *testing.T) {
	repo := newFakePoinRepo()
	svc := NewPoinService(repo, nil, nil, zap.NewNop())

	total, err := svc.Total(context.Background(), "siswa-without-points")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
