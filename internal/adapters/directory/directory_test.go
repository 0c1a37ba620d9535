package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/ctf-console/internal/apiclient"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/mocks"
	authmocks "github.com/target/ctf-console/internal/mocks/auth"
	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/testutil"
)

var (
	_ ports.Directory = (*HTTP)(nil)
	_ ports.Directory = (*Postgres)(nil)
	_ ports.Directory = (*Cached)(nil)
)

func newAPIClient(t *testing.T, srv *httptest.Server) *apiclient.Client {
	t.Helper()
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 0
	c, err := apiclient.New(cfg, apiclient.Options{
		Session:    authmocks.NewReadySession("console", "svc"),
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestHTTP_LookupRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/users/player-1":
			_, _ = w.Write([]byte(`{"id":"player-1","role":"admin"}`))
		case "/api/users/player-2":
			_, _ = w.Write([]byte(`{"data":{"role":"CREATOR"}}`))
		case "/api/users/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"user not found"}`))
		}
	}))
	defer srv.Close()

	tests := []struct {
		id      string
		want    domainauth.Role
		wantErr bool
	}{
		{"player-1", domainauth.RoleAdmin, false},
		{"player-2", domainauth.RoleCreator, false},
		{"ghost", domainauth.RoleNone, false},
		{"broken", domainauth.RoleNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, err := NewHTTP(newAPIClient(t, srv), HTTPOptions{})
			require.NoError(t, err)

			role, err := d.LookupRole(context.Background(), tt.id)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestHTTP_CustomPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/members/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"member":{"roles":["SUPERADMIN"]}}`))
	}))
	defer srv.Close()

	d, err := NewHTTP(newAPIClient(t, srv), HTTPOptions{UsersPath: "/v2/members/", RolePath: "member.roles[0]"})
	require.NoError(t, err)

	role, err := d.LookupRole(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleSuperAdmin, role)

	_, err = NewHTTP(nil, HTTPOptions{})
	require.Error(t, err)
	_, err = NewHTTP(newAPIClient(t, srv), HTTPOptions{RolePath: "[["})
	require.Error(t, err)
}

func TestPostgres_LookupRole(t *testing.T) {
	pool := testutil.SetupTestPool(t, Schema)
	d, err := NewPostgres(pool)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.UpsertRole(ctx, "player-1", domainauth.RoleUser))
	role, err := d.LookupRole(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, role)

	require.NoError(t, d.UpsertRole(ctx, "player-1", domainauth.RoleAdmin))
	role, err = d.LookupRole(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, role)

	role, err = d.LookupRole(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleNone, role)

	require.Error(t, d.UpsertRole(ctx, "", domainauth.RoleUser))
}

func TestCached_HitSkipsDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockRoleCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "p1").Return(domainauth.RoleAdmin, true, nil)

	dir := &authmocks.StubDirectory{}
	c, err := NewCached(dir, CachedOptions{Cache: cache})
	require.NoError(t, err)

	role, err := c.LookupRole(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, role)
	assert.Equal(t, int64(0), dir.Calls())
}

func TestCached_MissStoresKnownRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockRoleCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "p1").Return(domainauth.RoleNone, false, nil)
	cache.EXPECT().Set(gomock.Any(), "p1", domainauth.RoleCreator, 2*time.Minute).Return(nil)

	dir := &authmocks.StubDirectory{Roles: map[string]domainauth.Role{"p1": domainauth.RoleCreator}}
	c, err := NewCached(dir, CachedOptions{Cache: cache, TTL: 2 * time.Minute})
	require.NoError(t, err)

	role, err := c.LookupRole(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCreator, role)
}

func TestCached_FailuresAreNotCached(t *testing.T) {
	cache := authmocks.NewMemoryRoleCache()
	dir := &authmocks.StubDirectory{Err: errors.New("directory down")}
	c, err := NewCached(dir, CachedOptions{Cache: cache})
	require.NoError(t, err)

	for range 2 {
		_, err := c.LookupRole(context.Background(), "p1")
		require.Error(t, err)
	}
	assert.Equal(t, int64(2), dir.Calls())
	assert.Zero(t, cache.Sets)
}

func TestCached_CacheReadErrorFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockRoleCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "p1").Return(domainauth.RoleNone, false, errors.New("redis down"))
	cache.EXPECT().Set(gomock.Any(), "p1", domainauth.RoleUser, DefaultCacheTTL).Return(errors.New("redis down"))

	dir := &authmocks.StubDirectory{Roles: map[string]domainauth.Role{"p1": domainauth.RoleUser}}
	c, err := NewCached(dir, CachedOptions{Cache: cache})
	require.NoError(t, err)

	role, err := c.LookupRole(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, role)
}

func TestCached_CollapsesConcurrentLookups(t *testing.T) {
	dir := &authmocks.StubDirectory{
		Roles: map[string]domainauth.Role{"p1": domainauth.RoleSuperAdmin},
		Delay: 100 * time.Millisecond,
	}
	c, err := NewCached(dir, CachedOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			role, err := c.LookupRole(context.Background(), "p1")
			assert.NoError(t, err)
			assert.Equal(t, domainauth.RoleSuperAdmin, role)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), dir.Calls())
}

func TestCached_CallerCancellation(t *testing.T) {
	dir := &authmocks.StubDirectory{Roles: map[string]domainauth.Role{"p1": domainauth.RoleUser}, Delay: time.Second}
	c, err := NewCached(dir, CachedOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.LookupRole(ctx, "p1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewCached_RequiresDirectory(t *testing.T) {
	_, err := NewCached(nil, CachedOptions{})
	require.Error(t, err)
}
