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

// OrganizeStore abstracts class persistence.
type OrganizeStore interface {
	FindByID(ctx context.Context, id string) (*models.Organize, error)
	List(ctx context.Context, guruID string) ([]models.OrganizeDetail, error)
	Create(ctx context.Context, organize *models.Organize) error
	Update(ctx context.Context, organize *models.Organize) error
}

// OrganizeUserStore verifies the assigned teacher exists and has the
// guru role.
type OrganizeUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// OrganizeService manages classes.
type OrganizeService struct {
	repo     OrganizeStore
	users    OrganizeUserStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOrganizeService constructs an OrganizeService.
func NewOrganizeService(repo OrganizeStore, users OrganizeUserStore, validate *validator.Validate, logger *zap.Logger) *OrganizeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizeService{repo: repo, users: users, validate: validate, logger: logger}
}

// Create registers a new class assigned to a teacher.
func (s *OrganizeService) Create(ctx context.Context, req *models.CreateOrganizeRequest) (*models.Organize, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid organize payload")
	}

	if err := s.verifyGuru(ctx, req.GuruID); err != nil {
		return nil, err
	}

	organize := &models.Organize{
		Name:        req.Name,
		Description: req.Description,
		GuruID:      req.GuruID,
	}
	if err := s.repo.Create(ctx, organize); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create organize")
	}

	s.logger.Info("organize created",
		zap.String("organize_id", organize.ID),
		zap.String("guru_id", organize.GuruID))

	return organize, nil
}

// Get loads a class by ID.
func (s *OrganizeService) Get(ctx context.Context, id string) (*models.Organize, error) {
	organize, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organize not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organize")
	}
	return organize, nil
}

// List returns classes, optionally scoped to one teacher.
func (s *OrganizeService) List(ctx context.Context, guruID string) ([]models.OrganizeDetail, error) {
	organizes, err := s.repo.List(ctx, guruID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list organizes")
	}
	return organizes, nil
}

// Update applies partial changes to a class.
func (s *OrganizeService) Update(ctx context.Context, id string, req *models.UpdateOrganizeRequest) (*models.Organize, error) {
	organize, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		organize.Name = *req.Name
	}
	if req.Description != nil {
		organize.Description = req.Description
	}
	if req.GuruID != nil && *req.GuruID != organize.GuruID {
		if err := s.verifyGuru(ctx, *req.GuruID); err != nil {
			return nil, err
		}
		organize.GuruID = *req.GuruID
	}

	if err := s.repo.Update(ctx, organize); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update organize")
	}
	return organize, nil
}

func (s *OrganizeService) verifyGuru(ctx context.Context, guruID string) error {
	guru, err := s.users.FindByID(ctx, guruID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "assigned teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if guru.Role != models.RoleGuru {
		return appErrors.Clone(appErrors.ErrValidation, "assigned user is not a teacher")
	}
	return nil
}
