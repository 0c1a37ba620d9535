package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/ctf-console/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func devAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:          config.AuthModeMock,
		AdminGroup:    "admins",
		UserGroup:     "users",
		SessionPrefix: "test:session:",
		DevAuth: config.DevAuthConfig{
			UserID: "dev",
			Email:  "dev@example.com",
			Groups: []string{"admins"},
			Role:   "SUPERADMIN",
		},
	}
}

func TestBuildAuthServiceRequiresRedis(t *testing.T) {
	svc, err := BuildAuthService(AuthConfig{Auth: devAuthConfig(), Logger: discardLogger()})
	require.Error(t, err)
	assert.Nil(t, svc)
}

func TestBuildAuthServiceModes(t *testing.T) {
	// Construction never dials; the client is only used once sessions are touched.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := BuildAuthService(AuthConfig{Auth: devAuthConfig(), RedisClient: client, Logger: discardLogger()})
	require.NoError(t, err)
	assert.NotNil(t, svc)

	incomplete := config.AuthConfig{
		Mode:  config.AuthModeOAuth,
		OAuth: config.OAuthConfig{ClientID: "client-id", RedirectURL: "https://app.example.com/auth/callback"},
	}
	_, err = BuildAuthService(AuthConfig{Auth: incomplete, RedisClient: client, Logger: discardLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OAUTH_DISCOVERY_URL")

	_, err = BuildAuthService(AuthConfig{Auth: config.AuthConfig{Mode: "saml"}, RedisClient: client})
	require.Error(t, err)
}

func TestBuildTokenVerifierDisabled(t *testing.T) {
	v, err := BuildTokenVerifier(context.Background(), config.JWTConfig{}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, v)
}
