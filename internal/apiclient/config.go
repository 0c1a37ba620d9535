package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/ctf-console/internal/observability/statsd"
	"github.com/target/ctf-console/internal/ports"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadyTimeout   = 5 * time.Second
	defaultMaxRetries     = 3
	defaultBaseDelay      = time.Second
	defaultMessagePath    = "message || error.message || error || detail"
	defaultFieldsPath     = "errors || fieldErrors || error.details"
	maxResponseBytes      = 10 << 20
)

// Config controls request timing, retry policy and error-body extraction.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string
	// RequestTimeout bounds each attempt.
	RequestTimeout time.Duration
	// ReadyTimeout bounds the wait for the session to become ready. Zero
	// means the 5s default; a negative value sends at once without waiting.
	ReadyTimeout time.Duration
	// MaxRetries is the number of extra attempts after a 5xx response.
	MaxRetries int
	// BaseDelay is the delay before the first retry; later retries double it.
	BaseDelay time.Duration
	// MessagePath is a JMESPath expression selecting the error message from a 4xx/5xx body.
	MessagePath string
	// FieldsPath is a JMESPath expression selecting field-level validation errors.
	FieldsPath string
	// UserAgent is sent on every request when set.
	UserAgent string
}

// DefaultConfig returns the stock retry and timeout policy.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: defaultRequestTimeout,
		ReadyTimeout:   defaultReadyTimeout,
		MaxRetries:     defaultMaxRetries,
		BaseDelay:      defaultBaseDelay,
		MessagePath:    defaultMessagePath,
		FieldsPath:     defaultFieldsPath,
	}
}

// withDefaults fills zero values. Negative retries mean no retries.
func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MessagePath == "" {
		c.MessagePath = defaultMessagePath
	}
	if c.FieldsPath == "" {
		c.FieldsPath = defaultFieldsPath
	}
	return c
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options groups the collaborators of a Client.
type Options struct {
	// Session supplies readiness and tokens. Nil means every call is unauthenticated.
	Session ports.SessionSource
	// HTTPClient performs requests. Defaults to a client without an overall timeout;
	// attempts are bounded by Config.RequestTimeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    statsd.Sink
	// Sleep replaces the backoff wait in tests.
	Sleep SleepFunc
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
