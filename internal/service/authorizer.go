package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/domain/routes"
	"github.com/target/ctf-console/internal/observability/metrics"
	"github.com/target/ctf-console/internal/observability/statsd"
)

// AuthorizerOptions groups dependencies for Authorizer.
type AuthorizerOptions struct {
	Table    *routes.Table
	Targets  routes.Targets
	Resolver *RoleResolver
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// Authorizer decides whether a navigation is allowed or redirected.
// It holds no mutable state and is safe for concurrent use.
type Authorizer struct {
	table    *routes.Table
	targets  routes.Targets
	resolver *RoleResolver
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewAuthorizer constructs an Authorizer. Table and Resolver are required.
func NewAuthorizer(opts AuthorizerOptions) (*Authorizer, error) {
	if opts.Table == nil {
		return nil, errors.New("route table is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("role resolver is required")
	}
	targets := opts.Targets
	defaults := routes.DefaultTargets()
	if targets.SignIn == "" {
		targets.SignIn = defaults.SignIn
	}
	if targets.PublicRoot == "" {
		targets.PublicRoot = defaults.PublicRoot
	}
	if targets.UserRoot == "" {
		targets.UserRoot = defaults.UserRoot
	}
	if targets.AdminRoot == "" {
		targets.AdminRoot = defaults.AdminRoot
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{
		table:    opts.Table,
		targets:  targets,
		resolver: opts.Resolver,
		logger:   logger.With("component", "authorizer"),
		metrics:  opts.Metrics,
	}, nil
}

// Targets returns the redirect destinations in use.
func (a *Authorizer) Targets() routes.Targets { return a.targets }

// Classify exposes the route table lookup.
func (a *Authorizer) Classify(path string) routes.Match { return a.table.Classify(path) }

// Authorize returns a terminal decision for navigating to path as p.
// Denials are expressed as redirect decisions, never as errors.
func (a *Authorizer) Authorize(ctx context.Context, path string, p domainauth.Principal) routes.Decision {
	start := time.Now()
	d := a.decide(path, p, func() domainauth.Resolution { return a.resolver.Resolve(ctx, p) })
	a.record(ctx, d, time.Since(start))
	return d
}

// AuthorizeAll decides several navigations for the same principal. The role
// is resolved at most once, and only if some path is not public.
func (a *Authorizer) AuthorizeAll(ctx context.Context, paths []string, p domainauth.Principal) []routes.Decision {
	var (
		res      domainauth.Resolution
		resolved bool
	)
	resolve := func() domainauth.Resolution {
		if !resolved {
			res = a.resolver.Resolve(ctx, p)
			resolved = true
		}
		return res
	}
	out := make([]routes.Decision, 0, len(paths))
	for _, path := range paths {
		start := time.Now()
		d := a.decide(path, p, resolve)
		a.record(ctx, d, time.Since(start))
		out = append(out, d)
	}
	return out
}

func (a *Authorizer) record(ctx context.Context, d routes.Decision, elapsed time.Duration) {
	metrics.EmitDecision(a.metrics, metrics.DecisionMetric{
		State:    string(d.State),
		Class:    string(d.Class),
		Source:   string(d.Source),
		Duration: elapsed,
	})
	a.logger.DebugContext(ctx, "route authorized",
		"path", d.Path, "class", d.Class, "state", d.State,
		"role", d.Role, "source", d.Source, "target", d.Target)
}

func (a *Authorizer) decide(path string, p domainauth.Principal, resolve func() domainauth.Resolution) routes.Decision {
	m := a.table.Classify(path)
	d := routes.Decision{Path: m.Path, State: routes.StateUnclassified, Class: m.Class, Role: domainauth.RoleNone}

	if m.Class == routes.ClassPublic {
		d.State = routes.StatePublicAllowed
		return d
	}

	d.State = routes.StateAwaitingIdentity
	if !p.Authenticated() {
		d.State = routes.StateDeniedRedirect
		d.Source = domainauth.Unresolved
		d.Target = a.targets.SignIn
		return d
	}

	res := resolve()
	d.State = routes.StateRoleResolved
	d.Role = res.Role
	d.Source = res.Source

	if target, ok := routes.Gate(m, res.Role, a.targets); !ok {
		d.State = routes.StateDeniedRedirect
		d.Target = target
		return d
	}
	d.State = routes.StateAllowed
	return d
}
