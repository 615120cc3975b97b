package models

import "time"

// SiswaPoin is the per-student running point total. One row per student,
// maintained by an atomic upsert-increment so concurrent awards cannot
// lose updates.
type SiswaPoin struct {
	ID        string    `db:"id" json:"id"`
	SiswaID   string    `db:"siswa_id" json:"siswa_id"`
	TotalPoin int       `db:"total_poin" json:"total_poin"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
