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

// PoinRepository maintains the per-student point ledger.
type PoinRepository struct {
	db *sqlx.DB
}

// NewPoinRepository constructs a PoinRepository.
func NewPoinRepository(db *sqlx.DB) *PoinRepository {
	return &PoinRepository{db: db}
}

// Increment adds amount to the student's running total and returns the
// new total. The upsert is a single statement, so two concurrent awards
// for the same student both land; there is no read-modify-write window
// in which an update can be lost.
func (r *PoinRepository) Increment(ctx context.Context, siswaID string, amount int) (int, error) {
	const query = `INSERT INTO siswa_poin (id, siswa_id, total_poin, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (siswa_id)
        DO UPDATE SET total_poin = siswa_poin.total_poin + EXCLUDED.total_poin, updated_at = EXCLUDED.updated_at
        RETURNING total_poin`
	var total int
	if err := r.db.GetContext(ctx, &total, query, uuid.NewString(), siswaID, amount, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("increment siswa poin: %w", err)
	}
	return total, nil
}

// FindBySiswa fetches the ledger row for a student. A missing row is a
// distinguishable, non-fatal condition surfaced as sql.ErrNoRows.
func (r *PoinRepository) FindBySiswa(ctx context.Context, siswaID string) (*models.SiswaPoin, error) {
	const query = `SELECT id, siswa_id, total_poin, updated_at FROM siswa_poin WHERE siswa_id = $1 LIMIT 1`
	var poin models.SiswaPoin
	if err := r.db.GetContext(ctx, &poin, query, siswaID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find siswa poin: %w", err)
	}
	return &poin, nil
}

// Leaderboard returns the highest totals within one class.
func (r *PoinRepository) Leaderboard(ctx context.Context, organizeID string, limit int) ([]models.SiswaPoin, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT p.id, p.siswa_id, p.total_poin, p.updated_at
        FROM siswa_poin p
        JOIN users u ON u.id = p.siswa_id
        WHERE u.organize_id = $1
        ORDER BY p.total_poin DESC LIMIT %d`, limit)
	var rows []models.SiswaPoin
	if err := r.db.SelectContext(ctx, &rows, query, organizeID); err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return rows, nil
}
