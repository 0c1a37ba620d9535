package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/ports"
)

// DefaultCacheTTL bounds how long a directory answer is reused.
const DefaultCacheTTL = 5 * time.Minute

// CachedOptions configures Cached.
type CachedOptions struct {
	Cache  ports.RoleCache
	TTL    time.Duration
	Logger *slog.Logger
}

// Cached fronts a Directory with a RoleCache and collapses concurrent
// lookups for the same principal into one upstream call. Failed and NONE
// lookups are never cached.
type Cached struct {
	next   ports.Directory
	cache  ports.RoleCache
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCached wraps next. A nil Cache only deduplicates in-flight lookups.
func NewCached(next ports.Directory, opts CachedOptions) (*Cached, error) {
	if next == nil {
		return nil, errors.New("directory is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: opts.Cache, ttl: ttl, logger: logger.With("component", "directory_cache")}, nil
}

func (c *Cached) LookupRole(ctx context.Context, principalID string) (domainauth.Role, error) {
	if principalID == "" {
		return domainauth.RoleNone, nil
	}
	if c.cache != nil {
		role, ok, err := c.cache.Get(ctx, principalID)
		if err != nil {
			c.logger.WarnContext(ctx, "role cache read failed", "principal", principalID, "error", err)
		} else if ok {
			return role, nil
		}
	}

	ch := c.group.DoChan(principalID, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		lookupCtx := context.WithoutCancel(ctx)
		role, err := c.next.LookupRole(lookupCtx, principalID)
		if err != nil {
			return domainauth.RoleNone, err
		}
		if c.cache != nil && role.Known() {
			if setErr := c.cache.Set(lookupCtx, principalID, role, c.ttl); setErr != nil {
				c.logger.WarnContext(ctx, "role cache write failed", "principal", principalID, "error", setErr)
			}
		}
		return role, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.DebugContext(ctx, "directory lookup shared", "principal", principalID)
		}
		if res.Err != nil {
			return domainauth.RoleNone, res.Err
		}
		role, _ := res.Val.(domainauth.Role)
		return role, nil
	case <-ctx.Done():
		return domainauth.RoleNone, ctx.Err()
	}
}
