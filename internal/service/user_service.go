package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

// UserStore abstracts user administration persistence.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	AssignOrganize(ctx context.Context, id string, organizeID *string) error
	Deactivate(ctx context.Context, id string) error
	LinkChild(ctx context.Context, link *models.ParentChild) error
	ListChildren(ctx context.Context, ortuID string) ([]models.User, error)
	IsChildOf(ctx context.Context, ortuID, siswaID string) (bool, error)
}

// UserOrganizeStore verifies target classes exist.
type UserOrganizeStore interface {
	FindByID(ctx context.Context, id string) (*models.Organize, error)
}

// UserService handles user administration and parent-child links.
type UserService struct {
	repo      UserStore
	organizes UserOrganizeStore
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo UserStore, organizes UserOrganizeStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, organizes: organizes, validate: validate, logger: logger}
}

// Get loads a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns users matching the filter with a total count.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// AssignOrganize moves a student into a class, or removes them from any
// class when organizeID is nil.
func (s *UserService) AssignOrganize(ctx context.Context, userID string, organizeID *string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleSiswa {
		return appErrors.Clone(appErrors.ErrValidation, "only students belong to a class")
	}

	if organizeID != nil {
		if _, err := s.organizes.FindByID(ctx, *organizeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "organize does not exist")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organize")
		}
	}

	if err := s.repo.AssignOrganize(ctx, userID, organizeID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign organize")
	}

	s.logger.Info("student assigned to organize", zap.String("siswa_id", userID))
	return nil
}

// Deactivate marks a user inactive, blocking future logins.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}
	return nil
}

// LinkChild attaches a student to a parent account. Both sides must
// exist and carry the expected roles.
func (s *UserService) LinkChild(ctx context.Context, ortuID, siswaID string) error {
	ortu, err := s.Get(ctx, ortuID)
	if err != nil {
		return err
	}
	if ortu.Role != models.RoleOrtu {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a parent account")
	}

	siswa, err := s.Get(ctx, siswaID)
	if err != nil {
		return err
	}
	if siswa.Role != models.RoleSiswa {
		return appErrors.Clone(appErrors.ErrValidation, "linked user is not a student")
	}

	linked, err := s.repo.IsChildOf(ctx, ortuID, siswaID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
	}
	if linked {
		return appErrors.Clone(appErrors.ErrConflict, "student already linked to this parent")
	}

	if err := s.repo.LinkChild(ctx, &models.ParentChild{OrtuID: ortuID, SiswaID: siswaID}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link child")
	}

	s.logger.Info("child linked", zap.String("ortu_id", ortuID), zap.String("siswa_id", siswaID))
	return nil
}

// Children lists the students linked to a parent.
func (s *UserService) Children(ctx context.Context, ortuID string) ([]models.User, error) {
	children, err := s.repo.ListChildren(ctx, ortuID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, nil
}
