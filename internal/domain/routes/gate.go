package routes

import (
	"slices"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
)

// Targets are the fixed redirect destinations used by the gates.
type Targets struct {
	SignIn     string
	PublicRoot string
	UserRoot   string
	AdminRoot  string
}

// DefaultTargets returns the stock redirect destinations.
func DefaultTargets() Targets {
	return Targets{
		SignIn:     "/sign-in",
		PublicRoot: "/",
		UserRoot:   "/platform",
		AdminRoot:  "/admin",
	}
}

//nolint:gochecknoglobals // static read-only allow-lists
var (
	defaultUserRoles       = []domainauth.Role{domainauth.RoleUser}
	defaultAdminRoles      = []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleSuperAdmin}
	defaultSuperAdminRoles = []domainauth.Role{domainauth.RoleSuperAdmin}
)

// Gate applies the class gates to a resolved role. It returns ok=true when all
// applicable gates pass, otherwise the redirect target of the first failing gate.
// Gate is pure: the result depends only on its arguments.
func Gate(m Match, role domainauth.Role, t Targets) (string, bool) {
	if m.Class == ClassPublic {
		return "", true
	}
	if !role.Known() {
		return t.SignIn, false
	}

	switch m.Class {
	case ClassUserArea:
		if slices.Contains(allowList(m, ClassUserArea, defaultUserRoles), role) {
			return "", true
		}
		if role.IsAdmin() {
			return t.AdminRoot, false
		}
		return t.PublicRoot, false

	case ClassAdminArea:
		if !slices.Contains(allowList(m, ClassAdminArea, defaultAdminRoles), role) {
			return t.UserRoot, false
		}
		return "", true

	case ClassSuperAdminArea:
		// Nested inside the admin area: the admin gate runs first.
		if !slices.Contains(defaultAdminRoles, role) {
			return t.UserRoot, false
		}
		if !slices.Contains(allowList(m, ClassSuperAdminArea, defaultSuperAdminRoles), role) {
			return t.AdminRoot, false
		}
		return "", true

	default:
		return "", true
	}
}

func allowList(m Match, c Class, fallback []domainauth.Role) []domainauth.Role {
	if m.Rule != nil && m.Rule.Class == c && len(m.Rule.Roles) > 0 {
		return m.Rule.Roles
	}
	return fallback
}
