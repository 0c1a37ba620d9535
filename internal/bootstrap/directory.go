package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/target/ctf-console/config"
	"github.com/target/ctf-console/internal/adapters/directory"
	redisadapter "github.com/target/ctf-console/internal/adapters/redis"
	"github.com/target/ctf-console/internal/apiclient"
	"github.com/target/ctf-console/internal/ports"
)

// DirectoryDeps groups the collaborators a directory backend may need.
type DirectoryDeps struct {
	Config      config.DirectoryConfig
	RolePrefix  string
	Pool        *pgxpool.Pool
	APIClient   *apiclient.Client
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildDirectory returns the configured role directory wrapped in the Redis
// role cache, or nil when no backend is configured.
//
//nolint:ireturn // nil means roles come from claims only.
func BuildDirectory(deps DirectoryDeps) (ports.Directory, error) {
	var (
		dir ports.Directory
		err error
	)
	switch deps.Config.Backend {
	case config.DirectoryNone, "":
		return nil, nil
	case config.DirectoryHTTP:
		if deps.APIClient == nil {
			return nil, errors.New("http directory requires an API client")
		}
		dir, err = directory.NewHTTP(deps.APIClient, directory.HTTPOptions{
			UsersPath: deps.Config.UsersPath,
			RolePath:  deps.Config.RolePath,
		})
	case config.DirectoryPostgres:
		if deps.Pool == nil {
			return nil, errors.New("postgres directory requires a database pool")
		}
		dir, err = directory.NewPostgres(deps.Pool)
	default:
		return nil, fmt.Errorf("unknown directory backend %q", deps.Config.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s directory: %w", deps.Config.Backend, err)
	}

	opts := directory.CachedOptions{TTL: deps.Config.CacheTTL, Logger: deps.Logger}
	if deps.RedisClient != nil && deps.Config.CacheTTL > 0 {
		opts.Cache = redisadapter.NewRoleCache(deps.RedisClient, deps.RolePrefix)
	}
	return directory.NewCached(dir, opts)
}
