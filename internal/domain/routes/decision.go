package routes

import domainauth "github.com/target/ctf-console/internal/domain/auth"

// State is a node of the navigation authorization state machine.
type State string

const (
	StateUnclassified     State = "UNCLASSIFIED"
	StatePublicAllowed    State = "PUBLIC_ALLOWED"
	StateAwaitingIdentity State = "AWAITING_IDENTITY"
	StateRoleResolved     State = "ROLE_RESOLVED"
	StateDeniedRedirect   State = "DENIED_REDIRECT"
	StateAllowed          State = "ALLOWED"
)

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StatePublicAllowed || s == StateAllowed || s == StateDeniedRedirect
}

// Decision is the outcome of authorizing one navigation.
type Decision struct {
	Path   string
	State  State
	Class  Class
	Role   domainauth.Role
	Source domainauth.RoleSource
	// Target is the redirect destination when State is StateDeniedRedirect.
	Target string
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool {
	return d.State == StatePublicAllowed || d.State == StateAllowed
}

// DefaultRules is the stock classification table. Superadmin rules come before
// the admin rule they are nested under.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/", Class: ClassPublic},
		{Pattern: "/about", Class: ClassPublic},
		{Pattern: "/contact", Class: ClassPublic},
		{Pattern: "/pricing", Class: ClassPublic},
		{Pattern: "/sign-in(.*)", Class: ClassPublic},
		{Pattern: "/sign-up(.*)", Class: ClassPublic},
		{Pattern: "/auth/(.*)", Class: ClassPublic},
		{Pattern: "/healthz", Class: ClassPublic},
		{Pattern: "/readyz", Class: ClassPublic},
		{Pattern: "/static/(.*)", Class: ClassPublic},
		{Pattern: "/admin/audit-logs(.*)", Class: ClassSuperAdminArea},
		{Pattern: "/admin/admins(.*)", Class: ClassSuperAdminArea},
		{Pattern: "/admin/settings(.*)", Class: ClassSuperAdminArea},
		{
			Pattern: "/admin/challenges(.*)",
			Class:   ClassAdminArea,
			Roles:   []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleSuperAdmin, domainauth.RoleCreator},
		},
		{Pattern: "/admin(.*)", Class: ClassAdminArea},
		{Pattern: "/platform(.*)", Class: ClassUserArea},
	}
}
