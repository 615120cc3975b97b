package models

import "time"

// Organize is a class grouping students under one teacher.
type Organize struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	GuruID      string    `db:"guru_id" json:"guru_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateOrganizeRequest is the payload for creating a class.
type CreateOrganizeRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	GuruID      string  `json:"guru_id" validate:"required"`
}

// UpdateOrganizeRequest modifies a class. Nil fields are left unchanged.
type UpdateOrganizeRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	GuruID      *string `json:"guru_id,omitempty"`
}

// OrganizeDetail includes the member count for list views.
type OrganizeDetail struct {
	Organize
	GuruName     string `db:"guru_name" json:"guru_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}
