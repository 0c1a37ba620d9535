package auth

// Package auth contains domain-level types for authentication, sessions and roles.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence, claims and cookies.
type Role string

const (
	RoleNone       Role = "NONE"
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleCreator    Role = "CREATOR"
)

// ParseRole converts a raw claim or directory value into a Role.
// Matching is case-insensitive; unknown or empty values map to RoleNone.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	case RoleCreator:
		return RoleCreator
	default:
		return RoleNone
	}
}

// Known reports whether r carries any authority (anything but RoleNone).
func (r Role) Known() bool { return ParseRole(string(r)) != RoleNone }

// IsAdmin reports whether r belongs to the admin tier (ADMIN or SUPERADMIN).
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable principal identifier (sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	Claims    map[string]any // raw verified claims
	ExpiresAt time.Time      // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Role      Role           `json:"role"`
	Claims    map[string]any `json:"claims,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Principal returns the navigation principal carried by the session.
func (s Session) Principal() Principal {
	claims := s.Claims
	if s.Role.Known() {
		claims = withRoleClaim(claims, s.Role)
	}
	return Principal{ID: s.UserID, Claims: claims}
}

// Principal is the identity observed by the route authorizer.
// A zero Principal means no one is signed in.
type Principal struct {
	ID     string
	Claims map[string]any
}

// Authenticated reports whether a principal is present.
func (p Principal) Authenticated() bool { return strings.TrimSpace(p.ID) != "" }

// withRoleClaim sets the role claim unless claims already carry a known role.
func withRoleClaim(claims map[string]any, role Role) map[string]any {
	if s, ok := claims[ClaimRole].(string); ok && ParseRole(s).Known() {
		return claims
	}
	out := make(map[string]any, len(claims)+1)
	for k, v := range claims {
		out[k] = v
	}
	out[ClaimRole] = string(role)
	return out
}

// ClaimRole is the default claim name carrying the role.
const ClaimRole = "role"
