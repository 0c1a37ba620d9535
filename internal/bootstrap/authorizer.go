package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/domain/routes"
	"github.com/target/ctf-console/internal/observability/statsd"
	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/service"
)

// RouteTable builds the classification table: extra rules first, then either
// the configured override or the built-in rules.
func RouteTable(cfg config.RoutesConfig) (*routes.Table, error) {
	extra, err := routes.ParseRules(cfg.ExtraRules)
	if err != nil {
		return nil, fmt.Errorf("extra route rules: %w", err)
	}
	base := routes.DefaultRules()
	if len(cfg.Rules) > 0 {
		if base, err = routes.ParseRules(cfg.Rules); err != nil {
			return nil, fmt.Errorf("route rules: %w", err)
		}
	}
	table, err := routes.NewTable(append(extra, base...))
	if err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}
	return table, nil
}

// AuthorizerDeps groups inputs for BuildAuthorizer.
type AuthorizerDeps struct {
	Routes    config.RoutesConfig
	ClaimPath string
	Directory ports.Directory
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// BuildAuthorizer wires the role resolver and route table into an Authorizer.
// The resolver is returned as well so sign-in can read the same role claim.
func BuildAuthorizer(deps AuthorizerDeps) (*service.Authorizer, *service.RoleResolver, error) {
	resolver, err := service.NewRoleResolver(service.RoleResolverOptions{
		Directory: deps.Directory,
		ClaimPath: deps.ClaimPath,
		Logger:    deps.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create role resolver: %w", err)
	}
	table, err := RouteTable(deps.Routes)
	if err != nil {
		return nil, nil, err
	}
	authz, err := service.NewAuthorizer(service.AuthorizerOptions{
		Table: table,
		Targets: routes.Targets{
			SignIn:     deps.Routes.SignIn,
			PublicRoot: deps.Routes.PublicRoot,
			UserRoot:   deps.Routes.UserRoot,
			AdminRoot:  deps.Routes.AdminRoot,
		},
		Resolver: resolver,
		Logger:   deps.Logger,
		Metrics:  deps.Metrics,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create authorizer: %w", err)
	}
	return authz, resolver, nil
}
