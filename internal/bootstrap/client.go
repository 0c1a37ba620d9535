package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/apiclient"
	"github.com/target/ctf-console/internal/observability/statsd"
	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/session"
)

// ClientDeps groups inputs for the process-wide API client. Session
// defaults to ServiceSession(Config) when nil.
type ClientDeps struct {
	Config  config.ClientConfig
	Session ports.SessionSource
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// APIClientConfig maps env configuration onto apiclient.Config.
func APIClientConfig(c config.ClientConfig) apiclient.Config {
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.RequestTimeout = c.RequestTimeout
	cfg.ReadyTimeout = c.ReadyTimeout
	cfg.MaxRetries = c.MaxRetries
	cfg.BaseDelay = c.BaseDelay
	cfg.UserAgent = c.UserAgent
	if c.MessagePath != "" {
		cfg.MessagePath = c.MessagePath
	}
	if c.FieldsPath != "" {
		cfg.FieldsPath = c.FieldsPath
	}
	return cfg
}

// ServiceSession returns the credentials used for calls made on the
// console's own behalf. Client credentials win over a static token and are
// only ready once the first token has been issued; nil means requests go
// out unauthenticated.
//
//nolint:ireturn // nil means no service credentials are configured.
func ServiceSession(ctx context.Context, c config.ClientConfig) ports.SessionSource {
	switch {
	case c.HasClientCredentials():
		src := session.NewClientCredentials(ctx, session.ClientCredentials{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       c.Scopes,
		})
		return session.NewPolling(session.NewWarmup(ctx, src), 0)
	case c.StaticToken != "":
		return session.NewStatic("service", c.StaticToken)
	default:
		return nil
	}
}

// ConfigureAPIClient registers the process-wide client and returns it.
func ConfigureAPIClient(ctx context.Context, deps ClientDeps) (*apiclient.Client, error) {
	src := deps.Session
	if src == nil {
		src = ServiceSession(ctx, deps.Config)
	}
	apiclient.SetDefault(APIClientConfig(deps.Config), apiclient.Options{
		Session: src,
		Logger:  deps.Logger,
		Metrics: deps.Metrics,
	})
	return apiclient.Default()
}
