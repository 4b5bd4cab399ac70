package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Role enumerates the supported account roles. The set is closed: every role
// gate and every registration check matches exhaustively against these three
// values so an unknown role can never slip through gating logic.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleNgo   Role = "ngo"
	RoleDonor Role = "donor"
)

// ParseRole maps an incoming role string onto the closed enum. The second
// return value reports whether the input named a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleNgo, RoleDonor:
		return Role(s), true
	}
	return "", false
}

// User represents an authenticated account within the platform.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// OwnerRef is the public projection of a record's owning account, used when
// listings expand the owner reference. It never carries the password hash.
type OwnerRef struct {
	ID    string
	Name  string
	Email string
}

// OwnerRef returns the user's public owner projection.
func (u *User) OwnerRef() OwnerRef {
	return OwnerRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NormalizeEmail trims and case-folds an email address. Accounts store the
// normalized form so the database uniqueness constraint is case-insensitive.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
