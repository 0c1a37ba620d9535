package config

import (
	"strings"
	"time"
)

// ClientConfig controls the outbound request client used to call the CTF API.
type ClientConfig struct {
	BaseURL        string        `env:"BASE_URL"        envDefault:"http://localhost:3000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ReadyTimeout   time.Duration `env:"READY_TIMEOUT"   envDefault:"5s"` // negative skips the wait
	MaxRetries     int           `env:"MAX_RETRIES"     envDefault:"3"`
	BaseDelay      time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
	MessagePath    string        `env:"ERROR_MESSAGE_PATH"`
	FieldsPath     string        `env:"ERROR_FIELDS_PATH"`
	UserAgent      string        `env:"USER_AGENT"      envDefault:"ctf-console"`

	// Service credentials for calls made outside a user session (admin CLI,
	// directory lookups). Client credentials win over a static token.
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	TokenURL     string   `env:"TOKEN_URL"`
	Scopes       []string `env:"SCOPES" envSeparator:" "`
	StaticToken  string   `env:"TOKEN"`
}

// Sanitize applies guardrails to timing and retry values.
func (c *ClientConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = 5 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > 10 {
		c.MaxRetries = 10
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
}

// HasClientCredentials reports whether the OAuth2 client-credentials grant is configured.
func (c ClientConfig) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TokenURL != ""
}
