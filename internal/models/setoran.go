package models

import "time"

// SetoranJenis distinguishes new memorization from revision recitation.
type SetoranJenis string

const (
	JenisHafalan  SetoranJenis = "hafalan"
	JenisMurojaah SetoranJenis = "murojaah"
)

// Valid reports whether the jenis is a known value.
func (j SetoranJenis) Valid() bool {
	return j == JenisHafalan || j == JenisMurojaah
}

// SetoranStatus is the review state of a submission.
type SetoranStatus string

const (
	StatusPending  SetoranStatus = "pending"
	StatusDiterima SetoranStatus = "diterima"
	StatusDitolak  SetoranStatus = "ditolak"
	StatusSelesai  SetoranStatus = "selesai"
)

// setoranTransitions encodes the monotonic review lifecycle:
// pending -> diterima | ditolak, diterima -> selesai. Nothing returns to
// pending and rejected submissions stay rejected.
var setoranTransitions = map[SetoranStatus][]SetoranStatus{
	StatusPending:  {StatusDiterima, StatusDitolak},
	StatusDiterima: {StatusSelesai},
}

// CanTransition reports whether moving from s to next is allowed.
func (s SetoranStatus) CanTransition(next SetoranStatus) bool {
	for _, allowed := range setoranTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Setoran is a student's submitted recitation awaiting teacher review.
// GuruID is denormalized from the student's organize at creation time; if
// the class teacher later changes, past submissions keep the original
// reviewer.
type Setoran struct {
	ID         string        `db:"id" json:"id"`
	SiswaID    string        `db:"siswa_id" json:"siswa_id"`
	GuruID     string        `db:"guru_id" json:"guru_id"`
	OrganizeID string        `db:"organize_id" json:"organize_id"`
	FileURL    string        `db:"file_url" json:"file_url"`
	Jenis      SetoranJenis  `db:"jenis" json:"jenis"`
	Tanggal    time.Time     `db:"tanggal" json:"tanggal"`
	Status     SetoranStatus `db:"status" json:"status"`
	Catatan    *string       `db:"catatan" json:"catatan,omitempty"`
	Surah      string        `db:"surah" json:"surah"`
	Juz        *int          `db:"juz" json:"juz,omitempty"`
	Poin       int           `db:"poin" json:"poin"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// CreateSetoranRequest is the payload for submitting a recitation.
// Tanggal defaults to today when omitted.
type CreateSetoranRequest struct {
	FileURL string       `json:"file_url" validate:"required,url"`
	Jenis   SetoranJenis `json:"jenis" validate:"required,oneof=hafalan murojaah"`
	Surah   string       `json:"surah" validate:"required"`
	Juz     *int         `json:"juz,omitempty" validate:"omitempty,min=1,max=30"`
	Tanggal *time.Time   `json:"tanggal,omitempty"`
}

// ReviewSetoranRequest is the payload for a teacher's review decision.
type ReviewSetoranRequest struct {
	Status  SetoranStatus `json:"status" validate:"required,oneof=diterima ditolak selesai"`
	Poin    *int          `json:"poin,omitempty" validate:"omitempty,min=0"`
	Catatan *string       `json:"catatan,omitempty"`
}

// SetoranFilter captures filtering criteria for listing submissions.
type SetoranFilter struct {
	SiswaID    string
	GuruID     string
	OrganizeID string
	Status     *SetoranStatus
	Jenis      *SetoranJenis
	Page       int
	PageSize   int
}
