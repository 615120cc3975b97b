package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
	"github.com/tahfidz-app/tahfidz-api/pkg/export"
)

// AchievementLabelStore lists a student's juz completion records.
type AchievementLabelStore interface {
	ListBySiswa(ctx context.Context, siswaID string) ([]models.Label, error)
}

// AchievementPoinStore reads the point ledger.
type AchievementPoinStore interface {
	FindBySiswa(ctx context.Context, siswaID string) (*models.SiswaPoin, error)
}

// ParentLinkStore verifies parent-child relationships.
type ParentLinkStore interface {
	IsChildOf(ctx context.Context, ortuID, siswaID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AchievementService derives the read-side achievement aggregate: tier
// from cumulative points, completion from granted juz labels. It never
// writes domain state; the only side effect is cache population.
type AchievementService struct {
	poin     AchievementPoinStore
	labels   AchievementLabelStore
	users    ParentLinkStore
	cache    *CacheService
	cacheTTL time.Duration
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewAchievementService constructs an AchievementService.
func NewAchievementService(
	poin AchievementPoinStore,
	labels AchievementLabelStore,
	users ParentLinkStore,
	cache *CacheService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AchievementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AchievementService{
		poin:     poin,
		labels:   labels,
		users:    users,
		cache:    cache,
		cacheTTL: cacheTTL,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

func achievementCacheKey(siswaID string) string {
	return fmt.Sprintf("achievement:%s", siswaID)
}

// Summary computes a student's achievement aggregate. Tier boundaries
// are inclusive of the lower bound; completion is granted labels over
// the fixed 30 juz.
func (s *AchievementService) Summary(ctx context.Context, siswaID string) (*models.AchievementSummary, error) {
	if siswaID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "siswa_id is required")
	}

	if s.cache != nil {
		var cached models.AchievementSummary
		if hit, _ := s.cache.Get(ctx, achievementCacheKey(siswaID), &cached); hit {
			return &cached, nil
		}
	}

	total := 0
	poin, err := s.poin.FindBySiswa(ctx, siswaID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load points")
		}
	} else {
		total = poin.TotalPoin
	}

	labels, err := s.labels.ListBySiswa(ctx, siswaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load labels")
	}
	if labels == nil {
		labels = []models.Label{}
	}

	summary := &models.AchievementSummary{
		SiswaID:           siswaID,
		TotalPoin:         total,
		Tier:              models.TierForPoints(total),
		CompletedJuz:      len(labels),
		CompletionPercent: models.CompletionPercent(len(labels)),
		Labels:            labels,
	}

	if next := nextUncompletedJuz(labels); next > 0 {
		summary.NextJuz = &next
	}
	if threshold, ok := models.NextTierThreshold(total); ok {
		gap := threshold - total
		summary.PointsToNextTier = &gap
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, achievementCacheKey(siswaID), summary, s.cacheTTL)
	}

	return summary, nil
}

// nextUncompletedJuz returns the lowest juz with no label, or 0 when all
// thirty are done.
func nextUncompletedJuz(labels []models.Label) int {
	held := make(map[int]bool, len(labels))
	for _, l := range labels {
		held[l.Juz] = true
	}
	for juz := 1; juz <= models.TotalJuz; juz++ {
		if !held[juz] {
			return juz
		}
	}
	return 0
}

// SummaryForChild returns a child's summary after verifying the parent
// link. Parents must name a child explicitly; there is no implicit
// default child.
func (s *AchievementService) SummaryForChild(ctx context.Context, ortuID, siswaID string) (*models.AchievementSummary, error) {
	if siswaID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "child siswa_id is required")
	}
	linked, err := s.users.IsChildOf(ctx, ortuID, siswaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
	}
	if !linked {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is not linked to this parent")
	}
	return s.Summary(ctx, siswaID)
}

// ProgressReport renders a student's achievement summary as a
// downloadable document. Supported formats are "csv" and "pdf".
func (s *AchievementService) ProgressReport(ctx context.Context, siswaID, format string) ([]byte, string, error) {
	summary, err := s.Summary(ctx, siswaID)
	if err != nil {
		return nil, "", err
	}

	student, err := s.users.FindByID(ctx, siswaID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	name := siswaID
	if student != nil {
		name = student.Name
	}

	data := export.Dataset{
		Headers: []string{"Juz", "Tanggal", "Diberikan Oleh"},
	}
	for _, l := range summary.Labels {
		data.Rows = append(data.Rows, map[string]string{
			"Juz":            strconv.Itoa(l.Juz),
			"Tanggal":        l.Tanggal.Format("2006-01-02"),
			"Diberikan Oleh": l.DiberikanOleh,
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, fmt.Sprintf("progress-%s.csv", siswaID), nil
	case "pdf":
		summaryLines := []string{
			fmt.Sprintf("Student: %s", name),
			fmt.Sprintf("Total points: %d", summary.TotalPoin),
			fmt.Sprintf("Tier: %s", summary.Tier),
			fmt.Sprintf("Completed juz: %d of %d (%.1f%%)", summary.CompletedJuz, models.TotalJuz, summary.CompletionPercent),
		}
		payload, err := s.pdf.Render(data, "Progress Report", summaryLines)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, fmt.Sprintf("progress-%s.pdf", siswaID), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
