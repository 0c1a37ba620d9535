package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// Directory resolves a principal id to its authoritative role.
type Directory interface {
	LookupRole(ctx context.Context, principalID string) (domainauth.Role, error)
}

// RoleCache stores directory lookups. Get reports ok=false on a miss.
type RoleCache interface {
	Get(ctx context.Context, principalID string) (domainauth.Role, bool, error)
	Set(ctx context.Context, principalID string, role domainauth.Role, ttl time.Duration) error
}

// SessionSource is the externally owned session observed by the request client.
// Ready is closed once the provider has finished bootstrapping; Token returns a
// fresh, possibly rotated, token on every call.
type SessionSource interface {
	Ready() <-chan struct{}
	PrincipalID() string
	Token(ctx context.Context) (string, error)
	Claims() map[string]any
}

// TokenVerifier validates a bearer token and returns its subject and claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domainauth.Principal, error)
}
