package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

// PoinRepository abstracts the point ledger storage.
type PoinRepository interface {
	Increment(ctx context.Context, siswaID string, amount int) (int, error)
	FindBySiswa(ctx context.Context, siswaID string) (*models.SiswaPoin, error)
	Leaderboard(ctx context.Context, organizeID string, limit int) ([]models.SiswaPoin, error)
}

// PoinService owns point accrual. Every credit from any source funnels
// through Award so totals stay additive and never decrease.
type PoinService struct {
	repo    PoinRepository
	metrics *MetricsService
	cache   *CacheService
	logger  *zap.Logger
}

// NewPoinService constructs a PoinService.
func NewPoinService(repo PoinRepository, metrics *MetricsService, cache *CacheService, logger *zap.Logger) *PoinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoinService{repo: repo, metrics: metrics, cache: cache, logger: logger}
}

// Award credits amount points to the student and returns the new running
// total. A zero amount touches nothing and reports the current total;
// negative amounts are rejected.
func (s *PoinService) Award(ctx context.Context, siswaID string, amount int) (int, error) {
	if siswaID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "siswa_id is required")
	}
	if amount < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "point amount cannot be negative")
	}
	if amount == 0 {
		return s.Total(ctx, siswaID)
	}

	total, err := s.repo.Increment(ctx, siswaID, amount)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award points")
	}

	if s.metrics != nil {
		s.metrics.RecordPointsAwarded(amount)
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("achievement:%s*", siswaID))
	}

	s.logger.Info("points awarded",
		zap.String("siswa_id", siswaID),
		zap.Int("amount", amount),
		zap.Int("total", total))

	return total, nil
}

// Total returns a student's cumulative points. A student without a
// ledger row has zero points, not an error.
func (s *PoinService) Total(ctx context.Context, siswaID string) (int, error) {
	poin, err := s.repo.FindBySiswa(ctx, siswaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load points")
	}
	return poin.TotalPoin, nil
}

// Leaderboard returns the top point totals within a class.
func (s *PoinService) Leaderboard(ctx context.Context, organizeID string, limit int) ([]models.SiswaPoin, error) {
	if organizeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "organize_id is required")
	}
	rows, err := s.repo.Leaderboard(ctx, organizeID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	return rows, nil
}
