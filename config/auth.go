package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"ctf-console"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	// GroupsPath is a JMESPath expression selecting group names from ID token claims.
	GroupsPath string `env:"GROUPS_PATH" envDefault:"groups"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"ctf-admins"      envSeparator:";"`
	// Role, when set, is issued as the role claim of the dev identity.
	Role string `env:"ROLE"`
}

// JWTConfig controls bearer-token verification for API callers.
// Verification is enabled only when JWKSURL is set.
type JWTConfig struct {
	JWKSURL     string        `env:"JWKS_URL"`
	Issuer      string        `env:"ISSUER"`
	Audiences   []string      `env:"AUDIENCES"    envSeparator:","`
	AllowedAlgs []string      `env:"ALLOWED_ALGS" envDefault:"RS256" envSeparator:","`
	Leeway      time.Duration `env:"LEEWAY"       envDefault:"60s"`
}

// Enabled reports whether bearer tokens should be accepted.
func (c JWTConfig) Enabled() bool { return c.JWKSURL != "" && c.Issuer != "" }

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	JWT JWTConfig `envPrefix:"JWT_"`

	// RoleClaimPath is a JMESPath expression locating the role in session claims.
	RoleClaimPath string `env:"AUTH_ROLE_CLAIM_PATH" envDefault:"role"`

	// Group to role mapping applied at sign-in when no role claim is present.
	SuperAdminGroup string `env:"SUPERADMIN_GROUP" envDefault:"ctf-superadmins"`
	AdminGroup      string `env:"ADMIN_GROUP"      envDefault:"ctf-admins"`
	CreatorGroup    string `env:"CREATOR_GROUP"    envDefault:"ctf-creators"`
	UserGroup       string `env:"USER_GROUP"       envDefault:"ctf-players"`

	// SessionPrefix namespaces session keys in Redis.
	SessionPrefix string `env:"SESSION_PREFIX" envDefault:"ctfgate:session:"`
}

// Sanitize trims values and fills empty expressions.
func (c *AuthConfig) Sanitize() {
	c.RoleClaimPath = strings.TrimSpace(c.RoleClaimPath)
	if c.RoleClaimPath == "" {
		c.RoleClaimPath = "role"
	}
	c.OAuth.GroupsPath = strings.TrimSpace(c.OAuth.GroupsPath)
	c.OAuth.DiscoveryURL = strings.TrimSpace(c.OAuth.DiscoveryURL)
	c.JWT.JWKSURL = strings.TrimSpace(c.JWT.JWKSURL)
	c.JWT.Issuer = strings.TrimSpace(c.JWT.Issuer)
	if len(c.JWT.AllowedAlgs) == 0 {
		c.JWT.AllowedAlgs = []string{"RS256"}
	}
	if c.JWT.Leeway < 0 {
		c.JWT.Leeway = 0
	}
}
