package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
)

// OrganizeRepository manages persistence for class records.
type OrganizeRepository struct {
	db *sqlx.DB
}

// NewOrganizeRepository constructs an OrganizeRepository.
func NewOrganizeRepository(db *sqlx.DB) *OrganizeRepository {
	return &OrganizeRepository{db: db}
}

// FindByID fetches a class by ID.
func (r *OrganizeRepository) FindByID(ctx context.Context, id string) (*models.Organize, error) {
	const query = `SELECT id, name, description, guru_id, created_at FROM organizes WHERE id = $1`
	var organize models.Organize
	if err := r.db.GetContext(ctx, &organize, query, id); err != nil {
		return nil, err
	}
	return &organize, nil
}

// List returns classes with teacher name and member count, optionally
// restricted to one teacher.
func (r *OrganizeRepository) List(ctx context.Context, guruID string) ([]models.OrganizeDetail, error) {
	query := `SELECT o.id, o.name, o.description, o.guru_id, o.created_at,
        g.name AS guru_name,
        (SELECT COUNT(*) FROM users s WHERE s.organize_id = o.id AND s.role = 'siswa') AS student_count
        FROM organizes o
        JOIN users g ON g.id = o.guru_id`
	args := []interface{}{}
	if guruID != "" {
		query += " WHERE o.guru_id = $1"
		args = append(args, guruID)
	}
	query += " ORDER BY o.created_at DESC"

	var organizes []models.OrganizeDetail
	if err := r.db.SelectContext(ctx, &organizes, query, args...); err != nil {
		return nil, fmt.Errorf("list organizes: %w", err)
	}
	return organizes, nil
}

// Create inserts a new class.
func (r *OrganizeRepository) Create(ctx context.Context, organize *models.Organize) error {
	if organize.ID == "" {
		organize.ID = uuid.NewString()
	}
	if organize.CreatedAt.IsZero() {
		organize.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO organizes (id, name, description, guru_id, created_at)
        VALUES (:id, :name, :description, :guru_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, organize); err != nil {
		return fmt.Errorf("create organize: %w", err)
	}
	return nil
}

// Update modifies the class name, description and assigned teacher.
func (r *OrganizeRepository) Update(ctx context.Context, organize *models.Organize) error {
	const query = `UPDATE organizes SET name = :name, description = :description, guru_id = :guru_id WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, organize); err != nil {
		return fmt.Errorf("update organize: %w", err)
	}
	return nil
}

// GuruID resolves the assigned teacher of a class. Returns sql.ErrNoRows
// when the class does not exist.
func (r *OrganizeRepository) GuruID(ctx context.Context, organizeID string) (string, error) {
	var guruID string
	const query = `SELECT guru_id FROM organizes WHERE id = $1`
	if err := r.db.GetContext(ctx, &guruID, query, organizeID); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("resolve organize guru: %w", err)
	}
	return guruID, nil
}
