package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider  = (*MockAuthProvider)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
	_ ports.RoleMapper    = (*StaticRoleMapper)(nil)
	_ ports.SessionSource = (*StaticSession)(nil)
	_ ports.Directory     = (*StubDirectory)(nil)
	_ ports.RoleCache     = (*MemoryRoleCache)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID:    "mock-user-1",
		FirstName: "Mock",
		LastName:  "Player",
		Email:     "mock.player@example.com",
		Groups:    []string{"ctf-players"},
		Claims:    map[string]any{"sub": "mock-user-1", domainauth.ClaimRole: "USER"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, m.callCount), fmt.Sprintf("%s-%d", noncePrefix, m.callCount), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.UserID == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound error = notFoundError{}

// StaticRoleMapper maps groups by simple string membership rules.
type StaticRoleMapper struct {
	SuperAdminGroup string
	AdminGroup      string
	CreatorGroup    string
	UserGroup       string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, candidate := range []struct {
		group string
		role  domainauth.Role
	}{
		{m.SuperAdminGroup, domainauth.RoleSuperAdmin},
		{m.AdminGroup, domainauth.RoleAdmin},
		{m.CreatorGroup, domainauth.RoleCreator},
		{m.UserGroup, domainauth.RoleUser},
	} {
		if candidate.group == "" {
			continue
		}
		for _, g := range groups {
			if g == candidate.group {
				return candidate.role
			}
		}
	}
	return domainauth.RoleNone
}

// StaticSession is a SessionSource with a fixed principal. Ready is closed
// immediately unless the session was built with NewPendingSession.
type StaticSession struct {
	ID        string
	TokenFunc func(ctx context.Context) (string, error)
	ClaimsMap map[string]any

	ready      chan struct{}
	readyOnce  sync.Once
	tokenCalls atomic.Int64
}

// NewReadySession returns a ready session whose token is "<token>-<n>" for the nth fetch.
func NewReadySession(principalID, token string) *StaticSession {
	s := NewPendingSession(principalID, token)
	s.MarkReady()
	return s
}

// NewPendingSession returns a session that is not ready until MarkReady is called.
func NewPendingSession(principalID, token string) *StaticSession {
	s := &StaticSession{ID: principalID, ready: make(chan struct{})}
	s.TokenFunc = func(context.Context) (string, error) {
		return fmt.Sprintf("%s-%d", token, s.tokenCalls.Load()), nil
	}
	return s
}

// MarkReady closes the readiness channel. Safe to call more than once.
func (s *StaticSession) MarkReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *StaticSession) Ready() <-chan struct{} { return s.ready }

func (s *StaticSession) PrincipalID() string { return s.ID }

func (s *StaticSession) Token(ctx context.Context) (string, error) {
	s.tokenCalls.Add(1)
	if s.TokenFunc == nil {
		return "", nil
	}
	return s.TokenFunc(ctx)
}

func (s *StaticSession) Claims() map[string]any { return s.ClaimsMap }

// TokenCalls reports how many times Token was called.
func (s *StaticSession) TokenCalls() int64 { return s.tokenCalls.Load() }

// StubDirectory returns roles from a map and counts lookups.
type StubDirectory struct {
	Roles map[string]domainauth.Role
	Err   error
	// Delay holds each lookup open, for concurrency tests.
	Delay time.Duration

	calls atomic.Int64
}

func (d *StubDirectory) LookupRole(ctx context.Context, principalID string) (domainauth.Role, error) {
	d.calls.Add(1)
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return domainauth.RoleNone, ctx.Err()
		}
	}
	if d.Err != nil {
		return domainauth.RoleNone, d.Err
	}
	role, ok := d.Roles[principalID]
	if !ok {
		return domainauth.RoleNone, ErrNotFound
	}
	return role, nil
}

// Calls reports how many lookups were made.
func (d *StubDirectory) Calls() int64 { return d.calls.Load() }

// MemoryRoleCache is an in-memory RoleCache that ignores TTLs.
type MemoryRoleCache struct {
	mu    sync.Mutex
	roles map[string]domainauth.Role
	Sets  int
}

// NewMemoryRoleCache creates an empty cache.
func NewMemoryRoleCache() *MemoryRoleCache {
	return &MemoryRoleCache{roles: map[string]domainauth.Role{}}
}

func (c *MemoryRoleCache) Get(_ context.Context, principalID string) (domainauth.Role, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	role, ok := c.roles[principalID]
	return role, ok, nil
}

func (c *MemoryRoleCache) Set(_ context.Context, principalID string, role domainauth.Role, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[principalID] = role
	c.Sets++
	return nil
}
