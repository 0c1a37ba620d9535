package auth

// RoleSource records which tier of role resolution produced a role.
type RoleSource string

const (
	// FromClaims means the role was read from claims embedded in the session.
	FromClaims RoleSource = "claims"
	// FromDirectory means the role came from an explicit directory lookup.
	FromDirectory RoleSource = "directory"
	// Unresolved means neither tier produced a role; the role is RoleNone.
	Unresolved RoleSource = "unresolved"
)

// Resolution is the tagged result of resolving a principal's role.
type Resolution struct {
	Role   Role
	Source RoleSource
}

// ResolvedFromClaims builds a claims-tier resolution.
func ResolvedFromClaims(r Role) Resolution { return Resolution{Role: r, Source: FromClaims} }

// ResolvedFromDirectory builds a directory-tier resolution.
func ResolvedFromDirectory(r Role) Resolution { return Resolution{Role: r, Source: FromDirectory} }

// NotResolved is the fail-closed resolution.
func NotResolved() Resolution { return Resolution{Role: RoleNone, Source: Unresolved} }
