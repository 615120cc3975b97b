package models

import "time"

// UserRole represents the available roles. Role is fixed at registration
// and determines which workflows are reachable.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleGuru  UserRole = "guru"
	RoleSiswa UserRole = "siswa"
	RoleOrtu  UserRole = "ortu"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleGuru, RoleSiswa, RoleOrtu:
		return true
	}
	return false
}

// UserType is an optional sub-type tag carried from registration.
type UserType string

const (
	TypeNormal   UserType = "normal"
	TypeCadel    UserType = "cadel"
	TypeSchool   UserType = "school"
	TypePersonal UserType = "personal"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Role         UserRole   `db:"role" json:"role"`
	Type         *UserType  `db:"type" json:"type,omitempty"`
	OrganizeID   *string    `db:"organize_id" json:"organize_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ParentChild links a parent account to one of its children. A parent may
// have any number of linked children; reads on behalf of a child always
// name the child explicitly.
type ParentChild struct {
	ID        string    `db:"id" json:"id"`
	OrtuID    string    `db:"ortu_id" json:"ortu_id"`
	SiswaID   string    `db:"siswa_id" json:"siswa_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role       *UserRole
	OrganizeID string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
