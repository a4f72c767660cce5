package domain

import "time"

// Role is the closed set of roles a user may hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleResident Role = "resident"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleResident:
		return true
	}
	return false
}

func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User represents an authenticated identity as supplied by the auth collaborator.
type User struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	FullName           string    `json:"full_name"`
	District           string    `json:"district,omitempty"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Role               Role      `json:"role"`
	AssignedCategories []string  `json:"assigned_categories,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
