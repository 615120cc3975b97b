package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

type fakeAchievementStore struct {
	totals map[string]int
	labels map[string][]models.Label
	users  map[string]*models.User
	links  map[string]bool
}

func newFakeAchievementStore() *fakeAchievementStore {
	return &fakeAchievementStore{
		totals: map[string]int{},
		labels: map[string][]models.Label{},
		users:  map[string]*models.User{},
		links:  map[string]bool{},
	}
}

func (f *fakeAchievementStore) FindBySiswa(_ context.Context, siswaID string) (*models.SiswaPoin, error) {
	total, ok := f.totals[siswaID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SiswaPoin{SiswaID: siswaID, TotalPoin: total}, nil
}

func (f *fakeAchievementStore) ListBySiswa(_ context.Context, siswaID string) ([]models.Label, error) {
	return f.labels[siswaID], nil
}

func (f *fakeAchievementStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAchievementStore) IsChildOf(_ context.Context, ortuID, siswaID string) (bool, error) {
	return f.links[ortuID+":"+siswaID], nil
}

// stubCacheRepo is an in-memory CacheRepository for cache-path tests.
type stubCacheRepo struct {
	entries map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.entries == nil {
		return appErrors.ErrCacheMiss
	}
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.entries == nil {
		s.entries = map[string][]byte{}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	s.entries = nil
	return nil
}

func TestAchievementServiceSummary_TierBoundaries(t *testing.T) {
	cases := []struct {
		total int
		tier  models.AchievementTier
	}{
		{0, models.TierBeginner},
		{99, models.TierBeginner},
		{100, models.TierIntermediate},
		{199, models.TierIntermediate},
		{200, models.TierAdvanced},
		{499, models.TierAdvanced},
		{500, models.TierExpert},
		{999, models.TierExpert},
		{1000, models.TierMaster},
		{5000, models.TierMaster},
	}
	for _, tc := range cases {
		store := newFakeAchievementStore()
		store.totals["siswa-1"] = tc.total
		svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

		summary, err := svc.Summary(context.Background(), "siswa-1")
		require.NoError(t, err)
		assert.Equalf(t, tc.tier, summary.Tier, "total %d", tc.total)
	}
}

func TestAchievementServiceSummary_PointsToNextTier(t *testing.T) {
	store := newFakeAchievementStore()
	store.totals["siswa-1"] = 950
	svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

	summary, err := svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	require.NotNil(t, summary.PointsToNextTier)
	assert.Equal(t, 50, *summary.PointsToNextTier)

	store.totals["siswa-1"] = 1200
	summary, err = svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Nil(t, summary.PointsToNextTier)
}

func TestAchievementServiceSummary_Completion(t *testing.T) {
	store := newFakeAchievementStore()
	for juz := 1; juz <= 15; juz++ {
		store.labels["siswa-1"] = append(store.labels["siswa-1"], models.Label{SiswaID: "siswa-1", Juz: juz})
	}
	svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

	summary, err := svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 15, summary.CompletedJuz)
	assert.InDelta(t, 50.0, summary.CompletionPercent, 0.001)
	require.NotNil(t, summary.NextJuz)
	assert.Equal(t, 16, *summary.NextJuz)
}

func TestAchievementServiceSummary_AllJuzDone(t *testing.T) {
	store := newFakeAchievementStore()
	for juz := 1; juz <= models.TotalJuz; juz++ {
		store.labels["siswa-1"] = append(store.labels["siswa-1"], models.Label{SiswaID: "siswa-1", Juz: juz})
	}
	svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

	summary, err := svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, summary.CompletionPercent, 0.001)
	assert.Nil(t, summary.NextJuz)
}

func TestAchievementServiceSummary_UnknownStudentIsEmpty(t *testing.T) {
	store := newFakeAchievementStore()
	svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

	summary, err := svc.Summary(context.Background(), "siswa-unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalPoin)
	assert.Equal(t, models.TierBeginner, summary.Tier)
	assert.Empty(t, summary.Labels)
	assert.Zero(t, summary.CompletionPercent)
}

func TestAchievementServiceSummary_UsesCache(t *testing.T) {
	store := newFakeAchievementStore()
	store.totals["siswa-1"] = 300
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAchievementService(store, store, store, cacheSvc, time.Minute, zap.NewNop())

	first, err := svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, models.TierAdvanced, first.Tier)

	// A stale read is served from cache until invalidation.
	store.totals["siswa-1"] = 9999
	second, err := svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 300, second.TotalPoin)

	require.NoError(t, cacheSvc.Invalidate(context.Background(), "achievement:siswa-1*"))
	third, err := svc.Summary(context.Background(), "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 9999, third.TotalPoin)
}

func TestAchievementServiceSummaryForChild_RequiresLink(t *testing.T) {
	store := newFakeAchievementStore()
	store.totals["siswa-1"] = 120
	store.links["ortu-1:siswa-1"] = true
	svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

	summary, err := svc.SummaryForChild(context.Background(), "ortu-1", "siswa-1")
	require.NoError(t, err)
	assert.Equal(t, 120, summary.TotalPoin)

	_, err = svc.SummaryForChild(context.Background(), "ortu-2", "siswa-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// The child must be named explicitly.
	_, err = svc.SummaryForChild(context.Background(), "ortu-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAchievementServiceProgressReport_CSV(t *testing.T) {
	store := newFakeAchievementStore()
	store.totals["siswa-1"] = 150
	store.users["siswa-1"] = &models.User{ID: "siswa-1", Name: "Ahmad", Role: models.RoleSiswa}
	store.labels["siswa-1"] = []models.Label{
		{SiswaID: "siswa-1", Juz: 30, Tanggal: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), DiberikanOleh: "guru-1"},
	}
	svc := NewAchievementService(store, store, store, nil, 0, zap.NewNop())

	payload, filename, err := svc.ProgressReport(context.Background(), "siswa-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "progress-siswa-1.csv", filename)
	assert.Contains(t, string(payload), "30,2025-03-01,guru-1")

	_, _, err = svc.ProgressReport(context.Background(), "siswa-1", "xlsx")
	require.Error(t, err)
}
