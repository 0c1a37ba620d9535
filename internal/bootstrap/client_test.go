package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/apiclient"
	"github.com/target/ctf-console/internal/session"
)

func TestAPIClientConfig(t *testing.T) {
	cfg := APIClientConfig(config.ClientConfig{
		BaseURL:        "https://api.example.com",
		RequestTimeout: 3 * time.Second,
		MaxRetries:     2,
		BaseDelay:      200 * time.Millisecond,
		MessagePath:    "detail",
		UserAgent:      "ctf-console/test",
	})

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, "detail", cfg.MessagePath)
	assert.Equal(t, apiclient.DefaultConfig().FieldsPath, cfg.FieldsPath, "empty path keeps the default")
	assert.Equal(t, "ctf-console/test", cfg.UserAgent)
}

func TestServiceSession(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, ServiceSession(ctx, config.ClientConfig{}))

	static := ServiceSession(ctx, config.ClientConfig{StaticToken: "tok"})
	require.NotNil(t, static)
	tok, err := static.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.Equal(t, "service", static.PrincipalID())

	cc := ServiceSession(ctx, config.ClientConfig{
		ClientID:     "console",
		ClientSecret: "secret",
		TokenURL:     "https://idp.example.com/token",
		StaticToken:  "ignored",
	})
	require.NotNil(t, cc)
	assert.Equal(t, "console", cc.PrincipalID())
	assert.IsType(t, &session.Polling{}, cc)
	cc.(*session.Polling).Close()
}
