package models

import "time"

// Label records that a student completed a juz. Append-only; the
// completion count drives the achievement progress figures.
type Label struct {
	ID            string    `db:"id" json:"id"`
	SiswaID       string    `db:"siswa_id" json:"siswa_id"`
	Juz           int       `db:"juz" json:"juz"`
	Tanggal       time.Time `db:"tanggal" json:"tanggal"`
	DiberikanOleh string    `db:"diberikan_oleh" json:"diberikan_oleh"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
