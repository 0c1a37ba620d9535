package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/domain/routes"
	mocks "github.com/target/ctf-console/internal/mocks/auth"
	"github.com/target/ctf-console/internal/ports"
)

// mockSessionStore is a test helper for testing session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.Session) error
	getFunc    func(context.Context, string) (domainauth.Session, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sess)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Session{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

var testMapper = mocks.StaticRoleMapper{
	SuperAdminGroup: "ctf-superadmins",
	AdminGroup:      "ctf-admins",
	UserGroup:       "ctf-players",
}

func newTestAuthService(t *testing.T, provider ports.AuthProvider, sessions ports.SessionStore) *AuthService {
	t.Helper()
	claims, err := NewRoleResolver(RoleResolverOptions{})
	require.NoError(t, err)
	return NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Roles:    testMapper,
		Claims:   claims,
	})
}

func TestAuthService_BeginLogin(t *testing.T) {
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), mocks.NewMemorySessionStore())

	result, err := service.BeginLogin(context.Background(), "http://localhost:8080/auth/callback")

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", result.AuthURL)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "nonce-1", result.Nonce)
}

func TestAuthService_BeginLogin_EmptyRedirectURL(t *testing.T) {
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), mocks.NewMemorySessionStore())

	result, err := service.BeginLogin(context.Background(), "")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "redirect URL is required")
}

func TestAuthService_BeginLogin_ProviderError(t *testing.T) {
	provider := &mocks.MockAuthProvider{
		BeginFunc: func(context.Context, ports.BeginInput) (string, string, string, error) {
			return "", "", "", errors.New("provider error")
		},
	}
	service := newTestAuthService(t, provider, mocks.NewMemorySessionStore())

	_, err := service.BeginLogin(context.Background(), "http://localhost:8080/auth/callback")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin auth flow")
}

func TestAuthService_CompleteLogin_RoleClaimWins(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.DefaultUser = domainauth.Identity{
		UserID: "player-7",
		Groups: []string{"ctf-players"},
		Claims: map[string]any{"sub": "player-7", "role": "creator"},
	}
	sessions := mocks.NewMemorySessionStore()
	service := newTestAuthService(t, provider, sessions)

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCreator, result.Session.Role)
	assert.Equal(t, "creator", result.Session.Claims["role"])
	assert.NotEmpty(t, result.Session.ID)

	stored, err := sessions.Get(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "player-7", stored.UserID)
}

func TestAuthService_CompleteLogin_GroupFallback(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{"superadmin group", []string{"ctf-superadmins"}, domainauth.RoleSuperAdmin},
		{"admin group", []string{"ctf-admins", "ctf-players"}, domainauth.RoleAdmin},
		{"player group", []string{"ctf-players"}, domainauth.RoleUser},
		{"no group", nil, domainauth.RoleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mocks.NewMockAuthProvider()
			provider.DefaultUser = domainauth.Identity{UserID: "u-1", Groups: tt.groups}
			service := newTestAuthService(t, provider, mocks.NewMemorySessionStore())

			result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Session.Role)
		})
	}
}

func TestAuthService_CompleteLogin_MissingInputs(t *testing.T) {
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), mocks.NewMemorySessionStore())

	tests := []struct {
		name  string
		input CompleteLoginInput
		want  string
	}{
		{"code", CompleteLoginInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"state", CompleteLoginInput{Code: "c", Nonce: "n"}, "state parameter is required"},
		{"nonce", CompleteLoginInput{Code: "c", State: "s"}, "nonce parameter is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CompleteLogin(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAuthService_CompleteLogin_ExchangeError(t *testing.T) {
	provider := &mocks.MockAuthProvider{
		ExchangeFunc: func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{}, errors.New("invalid code")
		},
	}
	service := newTestAuthService(t, provider, mocks.NewMemorySessionStore())

	_, err := service.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange authorization code")
}

func TestAuthService_CompleteLogin_SessionSaveError(t *testing.T) {
	store := &mockSessionStore{saveFunc: func(context.Context, domainauth.Session) error {
		return errors.New("redis down")
	}}
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), store)

	_, err := service.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestAuthService_GetSession(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), sessions)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, domainauth.Session{
		ID: "live", UserID: "u-1", Role: domainauth.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour),
	}))

	got, err := service.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)

	_, err = service.GetSession(ctx, "")
	require.Error(t, err)

	_, err = service.GetSession(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get session")
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), sessions)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "old", UserID: "u-1", ExpiresAt: time.Now().Add(-time.Minute)}))

	_, err := service.GetSession(ctx, "old")
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = sessions.Get(ctx, "old")
	assert.Equal(t, mocks.ErrNotFound, err, "expired session should be removed")
}

func TestAuthService_Principal(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), sessions)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, domainauth.Session{
		ID: "sid", UserID: "u-1", Role: domainauth.RoleSuperAdmin, ExpiresAt: time.Now().Add(time.Hour),
	}))

	p, sess := service.Principal(ctx, "sid")
	require.NotNil(t, sess)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "SUPERADMIN", p.Claims["role"])

	p, sess = service.Principal(ctx, "unknown")
	assert.Nil(t, sess)
	assert.False(t, p.Authenticated())
}

func TestAuthService_Logout(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	service := newTestAuthService(t, mocks.NewMockAuthProvider(), sessions)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "sid", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, service.Logout(ctx, "sid"))
	_, err := sessions.Get(ctx, "sid")
	assert.Equal(t, mocks.ErrNotFound, err)

	require.NoError(t, service.Logout(ctx, ""))

	failing := newTestAuthService(t, mocks.NewMockAuthProvider(), &mockSessionStore{
		deleteFunc: func(context.Context, string) error { return errors.New("redis down") },
	})
	err = failing.Logout(ctx, "sid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete session")
}

func TestGenerateSessionID(t *testing.T) {
	a, b := generateSessionID(), generateSessionID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestAuthService_GroupRoleSurvivesUnknownRoleClaim(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.DefaultUser = domainauth.Identity{
		UserID: "staff-3",
		Groups: []string{"ctf-admins"},
		Claims: map[string]any{"sub": "staff-3", "role": "player"},
	}
	sessions := mocks.NewMemorySessionStore()
	service := newTestAuthService(t, provider, sessions)
	ctx := context.Background()

	result, err := service.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, result.Session.Role)

	p, sess := service.Principal(ctx, result.Session.ID)
	require.NotNil(t, sess)

	authz := newTestAuthorizer(t, nil, nil)
	d := authz.Authorize(ctx, "/admin/teams", p)
	assert.Equal(t, routes.StateAllowed, d.State)
	assert.Equal(t, domainauth.RoleAdmin, d.Role)
	assert.Equal(t, domainauth.FromClaims, d.Source)
}
