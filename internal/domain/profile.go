package domain

import (
	"strings"
	"time"
)

// Role is the capability tier of a profile. The declaration order is the
// capability order.
type Role uint8

const (
	// RoleUnknown is any stored or claimed role value outside the closed set.
	// It carries the same capabilities as RoleUser.
	RoleUnknown Role = iota
	RoleUser
	RoleAgent
	RoleAdmin
)

// Roles lists the assignable roles in capability order.
var Roles = []Role{RoleUser, RoleAgent, RoleAdmin}

// ParseRole maps a wire value to a Role. Unrecognized values yield RoleUnknown.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return RoleUser
	case "agent":
		return RoleAgent
	case "admin":
		return RoleAdmin
	}
	return RoleUnknown
}

// ParseAssignableRole is ParseRole for inputs that must name a real role.
func ParseAssignableRole(raw string) (Role, error) {
	role := ParseRole(raw)
	if role == RoleUnknown {
		return RoleUnknown, &FieldError{Field: "role", Kind: InvalidEnum, Value: raw}
	}
	return role, nil
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAgent:
		return "agent"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// Profile is an authenticated identity with an associated role.
type Profile struct {
	ID           string
	UserID       string
	DisplayName  string
	Email        string
	AvatarURL    *string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
