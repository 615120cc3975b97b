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

// LabelRepository manages juz completion records. Labels are append-only.
type LabelRepository struct {
	db *sqlx.DB
}

// NewLabelRepository constructs a LabelRepository.
func NewLabelRepository(db *sqlx.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// Create appends a completion record.
func (r *LabelRepository) Create(ctx context.Context, label *models.Label) error {
	if label.ID == "" {
		label.ID = uuid.NewString()
	}
	if label.CreatedAt.IsZero() {
		label.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO labels (id, siswa_id, juz, tanggal, diberikan_oleh, created_at)
        VALUES (:id, :siswa_id, :juz, :tanggal, :diberikan_oleh, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, label); err != nil {
		return fmt.Errorf("create label: %w", err)
	}
	return nil
}

// ListBySiswa returns a student's completion records ordered by juz.
func (r *LabelRepository) ListBySiswa(ctx context.Context, siswaID string) ([]models.Label, error) {
	const query = `SELECT id, siswa_id, juz, tanggal, diberikan_oleh, created_at FROM labels WHERE siswa_id = $1 ORDER BY juz`
	var labels []models.Label
	if err := r.db.SelectContext(ctx, &labels, query, siswaID); err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return labels, nil
}

// ExistsForJuz reports whether the student already holds the juz label.
func (r *LabelRepository) ExistsForJuz(ctx context.Context, siswaID string, juz int) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM labels WHERE siswa_id = $1 AND juz = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, siswaID, juz); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check label: %w", err)
	}
	return true, nil
}
