package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
)

// DefaultRolePrefix namespaces cached directory roles.
const DefaultRolePrefix = "ctfgate:role:"

// RoleCache stores directory role lookups under a TTL.
type RoleCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRoleCache creates a Redis role cache. An empty prefix uses DefaultRolePrefix.
func NewRoleCache(client redis.UniversalClient, prefix string) *RoleCache {
	if prefix == "" {
		prefix = DefaultRolePrefix
	}
	return &RoleCache{client: client, prefix: prefix}
}

// Get returns ok=false on a miss or when the stored value is not a known role.
func (c *RoleCache) Get(ctx context.Context, principalID string) (domainauth.Role, bool, error) {
	if principalID == "" {
		return domainauth.RoleNone, false, nil
	}
	v, err := c.client.Get(ctx, c.prefix+principalID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.RoleNone, false, nil
		}
		return domainauth.RoleNone, false, fmt.Errorf("redis get role: %w", err)
	}
	role := domainauth.ParseRole(v)
	return role, role.Known(), nil
}

// Set caches role for ttl. Unknown roles and non-positive TTLs are not stored.
func (c *RoleCache) Set(ctx context.Context, principalID string, role domainauth.Role, ttl time.Duration) error {
	if principalID == "" || !role.Known() || ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.prefix+principalID, string(role), ttl).Err(); err != nil {
		return fmt.Errorf("redis set role: %w", err)
	}
	return nil
}

// Delete drops a cached role so the next lookup reaches the directory.
func (c *RoleCache) Delete(ctx context.Context, principalID string) error {
	if principalID == "" {
		return nil
	}
	if err := c.client.Del(ctx, c.prefix+principalID).Err(); err != nil {
		return fmt.Errorf("redis delete role: %w", err)
	}
	return nil
}
