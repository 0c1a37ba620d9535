package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/apiclient"
	httpx "github.com/target/ctf-console/internal/http"
	"github.com/target/ctf-console/internal/observability/statsd"
	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/service"
)

// App is the assembled gateway process.
type App struct {
	Config     config.AppConfig
	Logger     *slog.Logger
	Redis      redis.UniversalClient
	Pool       *pgxpool.Pool
	Metrics    *statsd.Client
	API        *apiclient.Client
	Auth       *service.AuthService
	Authorizer *service.Authorizer
	Server     *http.Server

	service ports.SessionSource
}

// NewApp connects backing stores and wires every component. On error,
// anything already opened is closed.
func NewApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (app *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	app = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			err = errors.Join(err, app.Close())
			app = nil
		}
	}()

	app.Metrics, err = statsd.NewClient(statsd.Config{
		Enabled:    cfg.Observability.Metrics.IsEnabled(),
		Address:    cfg.Observability.Metrics.StatsdAddress,
		Prefix:     cfg.Observability.Metrics.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"service": "ctfgate"},
	})
	if err != nil {
		return app, fmt.Errorf("create metrics client: %w", err)
	}

	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}
	if app.Redis, err = ConnectRedis(ctx, dbCfg); err != nil {
		return app, err
	}
	if cfg.Directory.Backend == config.DirectoryPostgres {
		if app.Pool, err = ConnectPool(ctx, dbCfg); err != nil {
			return app, err
		}
		if cfg.Postgres.CreateSchema {
			if err = EnsureDirectorySchema(ctx, app.Pool, logger); err != nil {
				return app, err
			}
		}
	}

	app.service = ServiceSession(ctx, cfg.Client)
	if app.API, err = ConfigureAPIClient(ctx, ClientDeps{
		Config:  cfg.Client,
		Session: app.service,
		Logger:  logger,
		Metrics: app.Metrics,
	}); err != nil {
		return app, fmt.Errorf("create API client: %w", err)
	}

	dir, err := BuildDirectory(DirectoryDeps{
		Config:      cfg.Directory,
		RolePrefix:  cfg.Redis.RolePrefix,
		Pool:        app.Pool,
		APIClient:   app.API,
		RedisClient: app.Redis,
		Logger:      logger,
	})
	if err != nil {
		return app, err
	}

	authz, resolver, err := BuildAuthorizer(AuthorizerDeps{
		Routes:    cfg.Routes,
		ClaimPath: cfg.Auth.RoleClaimPath,
		Directory: dir,
		Metrics:   app.Metrics,
		Logger:    logger,
	})
	if err != nil {
		return app, err
	}
	app.Authorizer = authz

	if app.Auth, err = BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: app.Redis,
		Claims:      resolver,
		Logger:      logger,
	}); err != nil {
		return app, err
	}

	verifier, err := BuildTokenVerifier(ctx, cfg.Auth.JWT, logger)
	if err != nil {
		return app, err
	}

	upstream, err := UpstreamURL(cfg.HTTP.UpstreamURL)
	if err != nil {
		return app, err
	}

	app.Server = NewHTTPServer(cfg.HTTP, httpx.RouterServices{
		Auth:         app.Auth,
		Authorizer:   app.Authorizer,
		Verifier:     verifier,
		Upstream:     upstream,
		CookieDomain: cfg.HTTP.CookieDomain,
		LogoutURL:    cfg.Auth.OAuth.LogoutURL,
		Readiness:    app.readiness(),
		Logger:       logger,
	})

	logger.InfoContext(ctx, "gateway configured",
		"auth_mode", cfg.Auth.Mode,
		"directory", cfg.Directory.Backend,
		"bearer_tokens", verifier != nil,
		"upstream", cfg.HTTP.UpstreamURL,
		"metrics", app.Metrics.Enabled(),
	)
	return app, nil
}

func (a *App) readiness() map[string]httpx.ReadinessCheck {
	checks := map[string]httpx.ReadinessCheck{}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	if a.Pool != nil {
		checks["postgres"] = a.Pool.Ping
	}
	return checks
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	return ServeHTTP(ctx, a.Server, ln, a.Config.HTTP.ShutdownTimeout, a.Logger)
}

// Close releases backing connections.
func (a *App) Close() error {
	var errs []error
	if c, ok := a.service.(interface{ Close() }); ok {
		c.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if err := a.Metrics.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close metrics: %w", err))
	}
	return errors.Join(errs...)
}
