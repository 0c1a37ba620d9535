package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/util"
)

// RoleResolverOptions groups dependencies for RoleResolver.
type RoleResolverOptions struct {
	// Directory is consulted when claims carry no usable role. Optional.
	Directory ports.Directory
	// ClaimPath is a JMESPath expression selecting the role from claims. Defaults to "role".
	ClaimPath string
	Logger    *slog.Logger
}

// RoleResolver resolves a principal's role from claims, falling back to a
// single directory lookup. Lookup failures resolve to RoleNone.
type RoleResolver struct {
	directory ports.Directory
	claimPath util.Path
	logger    *slog.Logger
}

// NewRoleResolver validates the claim path and builds a RoleResolver.
func NewRoleResolver(opts RoleResolverOptions) (*RoleResolver, error) {
	expr := opts.ClaimPath
	if expr == "" {
		expr = domainauth.ClaimRole
	}
	path, err := util.CompilePath(expr)
	if err != nil {
		return nil, fmt.Errorf("role claim path: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{
		directory: opts.Directory,
		claimPath: path,
		logger:    logger.With("component", "role_resolver"),
	}, nil
}

// Resolve returns the tagged role resolution for p.
func (r *RoleResolver) Resolve(ctx context.Context, p domainauth.Principal) domainauth.Resolution {
	if !p.Authenticated() {
		return domainauth.NotResolved()
	}

	if role := r.FromClaims(p.Claims); role.Known() {
		return domainauth.ResolvedFromClaims(role)
	}
	// Sessions stamp the sign-in role under the default key even when ClaimPath points elsewhere.
	if s, ok := p.Claims[domainauth.ClaimRole].(string); ok {
		if role := domainauth.ParseRole(s); role.Known() {
			return domainauth.ResolvedFromClaims(role)
		}
	}

	if r.directory == nil {
		return domainauth.NotResolved()
	}

	role, err := r.directory.LookupRole(ctx, p.ID)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		r.logger.Log(ctx, level, "directory role lookup failed, denying by default",
			"principal_id", p.ID, "error", err)
		return domainauth.NotResolved()
	}
	role = domainauth.ParseRole(string(role))
	if !role.Known() {
		return domainauth.NotResolved()
	}
	return domainauth.ResolvedFromDirectory(role)
}

// FromClaims reads the role from claims. A list value yields its first known role.
func (r *RoleResolver) FromClaims(claims map[string]any) domainauth.Role {
	if len(claims) == 0 {
		return domainauth.RoleNone
	}
	v, err := r.claimPath.Search(claims)
	if err != nil {
		return domainauth.RoleNone
	}
	switch t := v.(type) {
	case string:
		return domainauth.ParseRole(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if role := domainauth.ParseRole(s); role.Known() {
					return role
				}
			}
		}
	}
	return domainauth.RoleNone
}
