package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
)

// SetoranRepository manages persistence for recitation submissions.
type SetoranRepository struct {
	db *sqlx.DB
}

// NewSetoranRepository constructs a SetoranRepository.
func NewSetoranRepository(db *sqlx.DB) *SetoranRepository {
	return &SetoranRepository{db: db}
}

const setoranColumns = `id, siswa_id, guru_id, organize_id, file_url, jenis, tanggal, status, catatan, surah, juz, poin, created_at, updated_at`

// Create inserts a new submission record.
func (r *SetoranRepository) Create(ctx context.Context, setoran *models.Setoran) error {
	if setoran.ID == "" {
		setoran.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if setoran.CreatedAt.IsZero() {
		setoran.CreatedAt = now
	}
	setoran.UpdatedAt = now
	const query = `INSERT INTO setoran (id, siswa_id, guru_id, organize_id, file_url, jenis, tanggal, status, catatan, surah, juz, poin, created_at, updated_at)
        VALUES (:id, :siswa_id, :guru_id, :organize_id, :file_url, :jenis, :tanggal, :status, :catatan, :surah, :juz, :poin, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, setoran); err != nil {
		return fmt.Errorf("create setoran: %w", err)
	}
	return nil
}

// FindByID fetches a submission by ID.
func (r *SetoranRepository) FindByID(ctx context.Context, id string) (*models.Setoran, error) {
	query := fmt.Sprintf(`SELECT %s FROM setoran WHERE id = $1`, setoranColumns)
	var setoran models.Setoran
	if err := r.db.GetContext(ctx, &setoran, query, id); err != nil {
		return nil, err
	}
	return &setoran, nil
}

// List returns submissions matching the filter, newest first.
func (r *SetoranRepository) List(ctx context.Context, filter models.SetoranFilter) ([]models.Setoran, int, error) {
	baseQuery := `FROM setoran WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SiswaID != "" {
		conditions = append(conditions, fmt.Sprintf("siswa_id = $%d", len(args)+1))
		args = append(args, filter.SiswaID)
	}
	if filter.GuruID != "" {
		conditions = append(conditions, fmt.Sprintf("guru_id = $%d", len(args)+1))
		args = append(args, filter.GuruID)
	}
	if filter.OrganizeID != "" {
		conditions = append(conditions, fmt.Sprintf("organize_id = $%d", len(args)+1))
		args = append(args, filter.OrganizeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Jenis != nil {
		conditions = append(conditions, fmt.Sprintf("jenis = $%d", len(args)+1))
		args = append(args, *filter.Jenis)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, setoranColumns, baseQuery, pageSize, offset)
	var setoran []models.Setoran
	if err := r.db.SelectContext(ctx, &setoran, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list setoran: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count setoran: %w", err)
	}
	return setoran, total, nil
}

// UpdateReview applies a review decision: status, awarded points and an
// optional teacher note.
func (r *SetoranRepository) UpdateReview(ctx context.Context, id string, status models.SetoranStatus, poin int, catatan *string) error {
	const query = `UPDATE setoran SET status = $2, poin = $3, catatan = COALESCE($4, catatan), updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, poin, catatan, time.Now().UTC()); err != nil {
		return fmt.Errorf("update setoran review: %w", err)
	}
	return nil
}

// CountByStatus aggregates a student's submissions per status, used on
// the dashboard.
func (r *SetoranRepository) CountByStatus(ctx context.Context, siswaID string) (map[models.SetoranStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS n FROM setoran WHERE siswa_id = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, siswaID)
	if err != nil {
		return nil, fmt.Errorf("count setoran by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.SetoranStatus]int)
	for rows.Next() {
		var status models.SetoranStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan setoran count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setoran counts: %w", err)
	}
	return counts, nil
}
