// Package apiclient issues JSON calls to the remote CTF API with a per-call
// bearer token, a bounded wait for session readiness, and 5xx retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/target/ctf-console/internal/errors"
	"github.com/target/ctf-console/internal/observability/metrics"
	"github.com/target/ctf-console/internal/observability/statsd"
	"github.com/target/ctf-console/internal/ports"
)

// HeaderRequestID carries the correlation id shared by all attempts of a call.
const HeaderRequestID = "X-Request-ID"

// Request describes one logical call.
type Request struct {
	Method string
	// Path is relative to Config.BaseURL or an absolute URL.
	Path string
	// Body is JSON-encoded when non-nil.
	Body   any
	Header http.Header
}

// Response is a successful (2xx) reply.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Attempts int
}

// Client is safe for concurrent use. Retry state lives on the stack of each call.
type Client struct {
	cfg     Config
	base    *url.URL
	session ports.SessionSource
	http    *http.Client
	logger  *slog.Logger
	metrics statsd.Sink
	sleep   SleepFunc
	errBody errorBody
}

// New builds a Client. Invalid BaseURL or JMESPath expressions are rejected.
func New(cfg Config, opts Options) (*Client, error) {
	cfg = cfg.withDefaults()

	var base *url.URL
	if s := strings.TrimSpace(cfg.BaseURL); s != "" {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("base url %q must be absolute", s)
		}
		base = u
	}

	eb, err := newErrorBody(cfg.MessagePath, cfg.FieldsPath)
	if err != nil {
		return nil, err
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Client{
		cfg:     cfg,
		base:    base,
		session: opts.Session,
		http:    hc,
		logger:  logger.With("component", "apiclient"),
		metrics: opts.Metrics,
		sleep:   sleep,
		errBody: eb,
	}, nil
}

// Do sends a call and decodes a 2xx JSON body into out. A nil out discards
// the body; an empty body leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Send(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode response body")
	}
	return nil
}

// Send performs the call, retrying 5xx responses up to MaxRetries times.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	header := c.buildHeader(ctx, req.Header, payload != nil)
	resp, err := c.run(ctx, attempt{method: method, url: target, number: 1}, header, payload)

	m := metrics.RequestMetric{Method: method, Duration: time.Since(start), Err: err}
	if resp != nil {
		m.Status = resp.Status
		m.Attempts = resp.Attempts
	} else {
		m.Attempts = attemptsOf(err)
	}
	metrics.EmitRequest(c.metrics, m)
	return resp, err
}

func (c *Client) run(ctx context.Context, at attempt, header http.Header, payload []byte) (*Response, error) {
	schedule := newSchedule(c.cfg.BaseDelay)
	for {
		status, respHeader, body, err := c.try(ctx, at, header, payload)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, contextError(ctxErr, at.number)
			}
			c.logger.WarnContext(ctx, "api request failed before a response",
				"method", at.method, "url", at.url, "attempt", at.number, "error", err)
			return nil, apperrors.Network(err, at.number)
		}

		switch {
		case status >= 200 && status < 300:
			return &Response{Status: status, Header: respHeader, Body: body, Attempts: at.number}, nil
		case status == http.StatusUnauthorized:
			msg, _ := c.errBody.parse(status, body)
			e := apperrors.Unauthorized(msg)
			e.Attempts = at.number
			return nil, e
		case status >= 500:
			if at.retries() >= c.cfg.MaxRetries {
				msg, _ := c.errBody.parse(status, body)
				return nil, apperrors.Server(status, msg, at.number)
			}
			delay := schedule.NextBackOff()
			c.logger.WarnContext(ctx, "retrying api request after server error",
				"method", at.method, "url", at.url, "status", status,
				"attempt", at.number, "max_retries", c.cfg.MaxRetries, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, contextError(err, at.number)
			}
			at = at.next(delay)
		default:
			msg, fields := c.errBody.parse(status, body)
			if len(fields) > 0 {
				c.logger.DebugContext(ctx, "api request rejected with field errors",
					"status", status, "fields", sortedFieldNames(fields))
			}
			e := apperrors.ClientRequest(status, msg, fields)
			e.Attempts = at.number
			return nil, e
		}
	}
}

// try performs a single attempt bounded by RequestTimeout.
func (c *Client) try(ctx context.Context, at attempt, header http.Header, payload []byte) (int, http.Header, []byte, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(actx, at.method, at.url, body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, resp.Header, data, nil
}

// buildHeader assembles the header replayed by every attempt of one call.
func (c *Client) buildHeader(ctx context.Context, extra http.Header, hasBody bool) http.Header {
	h := http.Header{}
	for k, vs := range extra {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Set("Accept", "application/json")
	if hasBody && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json")
	}
	if h.Get(HeaderRequestID) == "" {
		h.Set(HeaderRequestID, uuid.NewString())
	}
	if c.cfg.UserAgent != "" {
		h.Set("User-Agent", c.cfg.UserAgent)
	}
	if token := c.credential(ctx); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (c *Client) resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", apperrors.ValidationField("path", "request path is required")
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid request path")
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if c.base == nil {
		return "", apperrors.ValidationField("path", "relative path requires a base url")
	}
	joined := *c.base
	joined.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	// RawPath keeps escapes such as %2F from being decoded into path separators.
	joined.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	joined.RawQuery = ref.RawQuery
	return joined.String(), nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "encode request body")
	}
	return data, nil
}

func contextError(err error, attempts int) error {
	code := apperrors.ErrCodeCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		code = apperrors.ErrCodeTimeout
	}
	e := apperrors.Wrap(err, code, "api request aborted")
	e.Attempts = attempts
	return e
}

func attemptsOf(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Attempts
	}
	return 0
}
