package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	"github.com/tahfidz-app/tahfidz-api/pkg/config"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

// SetoranStore abstracts submission persistence.
type SetoranStore interface {
	Create(ctx context.Context, setoran *models.Setoran) error
	FindByID(ctx context.Context, id string) (*models.Setoran, error)
	List(ctx context.Context, filter models.SetoranFilter) ([]models.Setoran, int, error)
	UpdateReview(ctx context.Context, id string, status models.SetoranStatus, poin int, catatan *string) error
	CountByStatus(ctx context.Context, siswaID string) (map[models.SetoranStatus]int, error)
}

// SetoranUserStore provides the user lookups the submission flow needs.
type SetoranUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	IsChildOf(ctx context.Context, ortuID, siswaID string) (bool, error)
}

// OrganizeGuruStore resolves the teacher assigned to a class.
type OrganizeGuruStore interface {
	GuruID(ctx context.Context, organizeID string) (string, error)
}

// LabelStore manages juz completion records.
type LabelStore interface {
	Create(ctx context.Context, label *models.Label) error
	ExistsForJuz(ctx context.Context, siswaID string, juz int) (bool, error)
}

// PointAwarder credits points to a student ledger.
type PointAwarder interface {
	Award(ctx context.Context, siswaID string, amount int) (int, error)
}

// SetoranService implements the submission workflow: students submit
// recitations, the class teacher reviews them through a monotonic
// lifecycle, and accepted work earns points.
type SetoranService struct {
	repo      SetoranStore
	users     SetoranUserStore
	organizes OrganizeGuruStore
	labels    LabelStore
	points    PointAwarder
	metrics   *MetricsService
	cfg       config.SetoranConfig
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSetoranService constructs a SetoranService.
func NewSetoranService(
	repo SetoranStore,
	users SetoranUserStore,
	organizes OrganizeGuruStore,
	labels LabelStore,
	points PointAwarder,
	metrics *MetricsService,
	cfg config.SetoranConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *SetoranService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetoranService{
		repo:      repo,
		users:     users,
		organizes: organizes,
		labels:    labels,
		points:    points,
		metrics:   metrics,
		cfg:       cfg,
		validate:  validate,
		logger:    logger,
	}
}

// Create records a new submission for the student. The reviewing teacher
// is resolved from the student's class at creation time and denormalized
// onto the record.
func (s *SetoranService) Create(ctx context.Context, siswaID string, req *models.CreateSetoranRequest) (*models.Setoran, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setoran payload")
	}

	siswa, err := s.users.FindByID(ctx, siswaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if siswa.Role != models.RoleSiswa {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit setoran")
	}
	if siswa.OrganizeID == nil || *siswa.OrganizeID == "" {
		return nil, appErrors.ErrNoOrganize
	}

	guruID, err := s.organizes.GuruID(ctx, *siswa.OrganizeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoOrganize, "class has no assigned teacher")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class teacher")
	}

	tanggal := time.Now().UTC()
	if req.Tanggal != nil {
		tanggal = req.Tanggal.UTC()
	}

	poin := 0
	if s.cfg.PointsPolicy == config.SetoranPointsOnCreation {
		poin = s.cfg.DefaultPoints
	}

	setoran := &models.Setoran{
		SiswaID:    siswaID,
		GuruID:     guruID,
		OrganizeID: *siswa.OrganizeID,
		FileURL:    req.FileURL,
		Jenis:      req.Jenis,
		Tanggal:    tanggal,
		Status:     models.StatusPending,
		Surah:      req.Surah,
		Juz:        req.Juz,
		Poin:       poin,
	}

	if err := s.repo.Create(ctx, setoran); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create setoran")
	}

	if poin > 0 {
		if _, err := s.points.Award(ctx, siswaID, poin); err != nil {
			s.logger.Error("setoran created but points not credited",
				zap.String("setoran_id", setoran.ID),
				zap.Error(err))
			return setoran, appErrors.Clone(appErrors.ErrPointsNotAwarded, "setoran recorded but points were not awarded")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSetoranCreated()
	}

	s.logger.Info("setoran created",
		zap.String("setoran_id", setoran.ID),
		zap.String("siswa_id", siswaID),
		zap.String("jenis", string(setoran.Jenis)))

	return setoran, nil
}

// Review applies a teacher's decision. Transitions are monotonic:
// pending can be accepted or rejected, accepted can be completed, and
// nothing moves backwards. Accepting credits points; completing grants
// the juz label when the submission names one.
func (s *SetoranService) Review(ctx context.Context, id, reviewerID string, reviewerRole models.UserRole, req *models.ReviewSetoranRequest) (*models.Setoran, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	setoran, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setoran not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setoran")
	}

	if reviewerRole != models.RoleAdmin && setoran.GuruID != reviewerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned teacher can review this setoran")
	}

	if !setoran.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move setoran from %s to %s", setoran.Status, req.Status))
	}

	poin := setoran.Poin
	awardAmount := 0
	if req.Status == models.StatusDiterima && s.cfg.PointsPolicy == config.SetoranPointsOnReview {
		awardAmount = s.cfg.DefaultPoints
		if req.Poin != nil {
			awardAmount = *req.Poin
		}
		poin = awardAmount
	}

	if err := s.repo.UpdateReview(ctx, id, req.Status, poin, req.Catatan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update setoran")
	}

	setoran.Status = req.Status
	setoran.Poin = poin
	if req.Catatan != nil {
		setoran.Catatan = req.Catatan
	}

	if awardAmount > 0 {
		if _, err := s.points.Award(ctx, setoran.SiswaID, awardAmount); err != nil {
			s.logger.Error("setoran accepted but points not credited",
				zap.String("setoran_id", id),
				zap.Error(err))
			return setoran, appErrors.Clone(appErrors.ErrPointsNotAwarded, "review recorded but points were not awarded")
		}
	}

	if req.Status == models.StatusSelesai && setoran.Juz != nil {
		if err := s.grantJuzLabel(ctx, setoran.SiswaID, *setoran.Juz, reviewerID); err != nil {
			s.logger.Warn("juz label not granted",
				zap.String("setoran_id", id),
				zap.Int("juz", *setoran.Juz),
				zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSetoranReviewed(string(req.Status))
	}

	s.logger.Info("setoran reviewed",
		zap.String("setoran_id", id),
		zap.String("reviewer_id", reviewerID),
		zap.String("status", string(req.Status)))

	return setoran, nil
}

// grantJuzLabel is idempotent: a student holds at most one label per juz.
func (s *SetoranService) grantJuzLabel(ctx context.Context, siswaID string, juz int, guruID string) error {
	exists, err := s.labels.ExistsForJuz(ctx, siswaID, juz)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.labels.Create(ctx, &models.Label{
		SiswaID:       siswaID,
		Juz:           juz,
		Tanggal:       time.Now().UTC(),
		DiberikanOleh: guruID,
	})
}

// Get loads a single submission, enforcing access rules: the owning
// student, the assigned teacher, a linked parent, or an admin.
func (s *SetoranService) Get(ctx context.Context, id string, requesterID string, requesterRole models.UserRole) (*models.Setoran, error) {
	setoran, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setoran not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setoran")
	}

	allowed, err := s.canAccess(ctx, setoran, requesterID, requesterRole)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.ErrForbidden
	}
	return setoran, nil
}

func (s *SetoranService) canAccess(ctx context.Context, setoran *models.Setoran, requesterID string, role models.UserRole) (bool, error) {
	switch role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleSiswa:
		return setoran.SiswaID == requesterID, nil
	case models.RoleGuru:
		return setoran.GuruID == requesterID, nil
	case models.RoleOrtu:
		linked, err := s.users.IsChildOf(ctx, requesterID, setoran.SiswaID)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
		}
		return linked, nil
	default:
		return false, nil
	}
}

// List returns submissions matching the filter together with the total
// count. Scoping to the caller is the handler's job; the service only
// validates the filter values.
func (s *SetoranService) List(ctx context.Context, filter models.SetoranFilter) ([]models.Setoran, int, error) {
	if filter.Status != nil {
		switch *filter.Status {
		case models.StatusPending, models.StatusDiterima, models.StatusDitolak, models.StatusSelesai:
		default:
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown setoran status")
		}
	}
	if filter.Jenis != nil && !filter.Jenis.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown setoran jenis")
	}

	setoran, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list setoran")
	}
	return setoran, total, nil
}

// ListForChild lists a linked child's submissions on behalf of a
// parent. The child must be named explicitly and linked to the parent.
func (s *SetoranService) ListForChild(ctx context.Context, ortuID, siswaID string, filter models.SetoranFilter) ([]models.Setoran, int, error) {
	if siswaID == "" {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "child siswa_id is required")
	}
	linked, err := s.users.IsChildOf(ctx, ortuID, siswaID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
	}
	if !linked {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "student is not linked to this parent")
	}
	filter.SiswaID = siswaID
	return s.List(ctx, filter)
}

// StatusCounts aggregates a student's submissions per lifecycle state,
// under the same access rules as the other reads: students see their own
// counts, parents a linked child's, teachers a student of their own
// class, admins anyone's.
func (s *SetoranService) StatusCounts(ctx context.Context, requesterID string, requesterRole models.UserRole, siswaID string) (map[models.SetoranStatus]int, error) {
	switch requesterRole {
	case models.RoleSiswa:
		siswaID = requesterID
	case models.RoleAdmin:
		if siswaID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "siswa_id is required")
		}
	case models.RoleOrtu:
		if siswaID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "child siswa_id is required")
		}
		linked, err := s.users.IsChildOf(ctx, requesterID, siswaID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
		}
		if !linked {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student is not linked to this parent")
		}
	case models.RoleGuru:
		if siswaID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "siswa_id is required")
		}
		if err := s.verifyTeaches(ctx, requesterID, siswaID); err != nil {
			return nil, err
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	counts, err := s.repo.CountByStatus(ctx, siswaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count setoran")
	}
	return counts, nil
}

// verifyTeaches checks that the student's class is assigned to the
// teacher, resolving the assignment server-side.
func (s *SetoranService) verifyTeaches(ctx context.Context, guruID, siswaID string) error {
	siswa, err := s.users.FindByID(ctx, siswaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if siswa.OrganizeID == nil || *siswa.OrganizeID == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "student is not in this teacher's class")
	}
	owner, err := s.organizes.GuruID(ctx, *siswa.OrganizeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "student is not in this teacher's class")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class teacher")
	}
	if owner != guruID {
		return appErrors.Clone(appErrors.ErrForbidden, "student is not in this teacher's class")
	}
	return nil
}
