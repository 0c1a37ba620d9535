package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/adapters/authroles"
	"github.com/target/ctf-console/internal/adapters/devauth"
	"github.com/target/ctf-console/internal/adapters/jwtclaims"
	"github.com/target/ctf-console/internal/adapters/oidc"
	redisadapter "github.com/target/ctf-console/internal/adapters/redis"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// Claims reads role claims at sign-in. Optional.
	Claims *service.RoleResolver
	Logger *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth service requires a redis client")
	}

	sessionStore := redisadapter.NewSessionStore(cfg.RedisClient, cfg.Auth.SessionPrefix)
	roleMapper := authroles.StaticRoleMapper{
		SuperAdminGroup: cfg.Auth.SuperAdminGroup,
		AdminGroup:      cfg.Auth.AdminGroup,
		CreatorGroup:    cfg.Auth.CreatorGroup,
		UserGroup:       cfg.Auth.UserGroup,
	}

	var (
		prov ports.AuthProvider
		err  error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err = buildDevAuthProvider(cfg)
	case config.AuthModeOAuth:
		prov, err = buildOAuthProvider(cfg)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		Roles:    roleMapper,
		Claims:   cfg.Claims,
	}), nil
}

//nolint:ireturn // the caller selects between provider implementations.
func buildDevAuthProvider(cfg AuthConfig) (ports.AuthProvider, error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("dev auth enabled; every sign-in uses the configured identity",
			"user_id", cfg.Auth.DevAuth.UserID)
	}
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
		Role:   domainauth.ParseRole(cfg.Auth.DevAuth.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	return prov, nil
}

//nolint:ireturn // the caller selects between provider implementations.
func buildOAuthProvider(cfg AuthConfig) (ports.AuthProvider, error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil, errors.New("oauth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
		GroupsPath:   oauth.GroupsPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}

// BuildTokenVerifier returns a JWKS-backed bearer verifier, or nil when
// bearer tokens are not configured.
//
//nolint:ireturn // nil means bearer tokens are not accepted.
func BuildTokenVerifier(ctx context.Context, cfg config.JWTConfig, logger *slog.Logger) (ports.TokenVerifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	v, err := jwtclaims.NewJWKS(ctx, jwtclaims.Config{
		Issuer:      cfg.Issuer,
		Audiences:   cfg.Audiences,
		AllowedAlgs: cfg.AllowedAlgs,
		Leeway:      cfg.Leeway,
	}, cfg.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("create token verifier: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "bearer tokens enabled", "issuer", cfg.Issuer, "jwks_url", cfg.JWKSURL)
	}
	return v, nil
}
