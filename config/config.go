package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sign-in, role mapping and bearer tokens
//   - database.go: Postgres directory and Redis
//   - client.go: the outbound API request client
//   - routes.go: route classification and redirect targets
//   - http.go: HTTP server configuration
type AppConfig struct {
	// IsDev relaxes startup requirements for local runs.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth      AuthConfig
	Directory DirectoryConfig `envPrefix:"DIRECTORY_"`
	Postgres  DBConfig        `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Client    ClientConfig    `envPrefix:"API_"`
	Routes    RoutesConfig    `envPrefix:"ROUTES_"`
	HTTP      HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Directory.Sanitize()
	c.Postgres.Sanitize()
	c.Client.Sanitize()
	c.Routes.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks NODE_ENV as a fallback for DEV (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
