// Package types provides the domain types shared by the recruitment tracker packages.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a user's designation in the reporting hierarchy.
type Role string

// Known roles.
const (
	RoleAdmin     Role = "Admin"
	RoleManager   Role = "Manager"
	RoleRecruiter Role = "Recruiter"
	RoleMentor    Role = "Mentor"
	RoleFinance   Role = "Finance"
)

// ParseRole converts a raw string to a Role, returning an error for unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleManager, RoleRecruiter, RoleMentor, RoleFinance:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is a member of the recruiting organisation.
// Reporter is a weak reference: it may point at a deleted user or form a cycle.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Role      Role       `json:"role"`
	IsAdmin   bool       `json:"is_admin"`
	Reporter  *uuid.UUID `json:"reporter,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Admin reports whether the user has administrative reach, either by role or flag.
func (u User) Admin() bool {
	return u.IsAdmin || u.Role == RoleAdmin
}

// ReadOnly reports whether the user may only read candidate data.
func (u User) ReadOnly() bool {
	return u.Role == RoleFinance && !u.IsAdmin
}
