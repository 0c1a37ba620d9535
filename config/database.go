package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DirectoryBackend selects where authoritative roles are looked up.
type DirectoryBackend string

const (
	DirectoryNone     DirectoryBackend = "none"
	DirectoryHTTP     DirectoryBackend = "http"
	DirectoryPostgres DirectoryBackend = "postgres"
)

// DirectoryConfig controls the role directory consulted when claims carry no role.
type DirectoryConfig struct {
	Backend DirectoryBackend `env:"BACKEND" envDefault:"none"`
	// UsersPath and RolePath apply to the http backend.
	UsersPath string `env:"USERS_PATH" envDefault:"/api/users"`
	RolePath  string `env:"ROLE_PATH"  envDefault:"role"`
	// CacheTTL bounds how long a looked-up role is reused. Zero disables caching.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Sanitize falls back to "none" for unknown backends.
func (c *DirectoryConfig) Sanitize() {
	c.Backend = DirectoryBackend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	switch c.Backend {
	case DirectoryHTTP, DirectoryPostgres:
	default:
		c.Backend = DirectoryNone
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	}
}

// DBConfig contains PostgreSQL configuration for the role directory.
type DBConfig struct {
	Host     string `env:"HOST"      envDefault:"localhost"`
	Port     int    `env:"PORT"      envDefault:"5432"`
	User     string `env:"USER"      envDefault:"ctfgate"`
	Password string `env:"PASSWORD"  envDefault:"ctfgate"`
	Name     string `env:"NAME"      envDefault:"ctfgate"`
	SSLMode  string `env:"SSL_MODE"  envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
	// CreateSchema creates the users table at startup when missing.
	CreateSchema bool `env:"CREATE_SCHEMA" envDefault:"false"`
}

// Sanitize clamps pool sizing.
func (c *DBConfig) Sanitize() {
	if c.MaxConns < 1 {
		c.MaxConns = 1
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
}

// DSN builds a postgres URL, escaping credentials.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig contains Redis configuration for sessions and the role cache.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// RolePrefix namespaces cached directory roles.
	RolePrefix string `env:"ROLE_PREFIX" envDefault:"ctfgate:role:"`
}
