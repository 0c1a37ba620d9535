package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/domain/routes"
	"github.com/target/ctf-console/internal/ports"
)

const (
	sessionCookieName = "session_id"
	headerRequestID   = "X-Request-ID"
)

// Logging returns a middleware that logs HTTP requests and responses.
// It assigns an X-Request-ID when the caller did not send one.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(headerRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
				r.Header.Set(headerRequestID, reqID)
			}
			w.Header().Set(headerRequestID, reqID)

			ctx, slot := withDecisionSlot(r.Context())
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", reqID),
			}
			if slot.set {
				attrs = append(attrs, slog.String("decision", string(slot.d.State)), slog.String("role", string(slot.d.Role)))
			}
			logger.InfoContext(r.Context(), "http", attrs...)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RouteAuthorizer decides navigations. Implemented by service.Authorizer.
type RouteAuthorizer interface {
	Authorize(ctx context.Context, path string, p domainauth.Principal) routes.Decision
	AuthorizeAll(ctx context.Context, paths []string, p domainauth.Principal) []routes.Decision
	Targets() routes.Targets
}

// PrincipalSource turns a session cookie into a principal. Implemented by service.AuthService.
type PrincipalSource interface {
	Principal(ctx context.Context, sessionID string) (domainauth.Principal, *domainauth.Session)
}

// GuardOptions configures RouteGuard.
type GuardOptions struct {
	Authorizer RouteAuthorizer
	Sessions   PrincipalSource
	// Verifier authenticates bearer tokens. Optional; without it only cookies count.
	Verifier ports.TokenVerifier
	Logger   *slog.Logger
}

// RouteGuard authorizes every request before it reaches next.
// Browser requests are redirected with 303, HTMX requests receive HX-Redirect,
// and /api/ requests receive JSON 401 or 403.
func RouteGuard(opts GuardOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, sess := principalFor(r, opts, logger)
			d := opts.Authorizer.Authorize(ctx, r.URL.Path, p)

			ctx = SetDecisionInContext(ctx, d)
			ctx = SetPrincipalInContext(ctx, p)
			ctx = SetSessionInContext(ctx, sess)
			r = r.WithContext(ctx)

			if d.Allowed() {
				next.ServeHTTP(w, r)
				return
			}
			deny(w, r, d, opts.Authorizer.Targets())
		})
	}
}

func principalFor(r *http.Request, opts GuardOptions, logger *slog.Logger) (domainauth.Principal, *domainauth.Session) {
	if token, ok := bearerToken(r); ok && opts.Verifier != nil {
		p, err := opts.Verifier.Verify(r.Context(), token)
		if err != nil {
			logger.DebugContext(r.Context(), "bearer token rejected", "error", err)
			return domainauth.Principal{}, nil
		}
		return p, nil
	}
	if opts.Sessions == nil {
		return domainauth.Principal{}, nil
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return domainauth.Principal{}, nil
	}
	return opts.Sessions.Principal(r.Context(), c.Value)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(w http.ResponseWriter, r *http.Request, d routes.Decision, t routes.Targets) {
	if isAPIRequest(r) {
		status, code, msg := http.StatusForbidden, "insufficient_permissions", "insufficient permissions"
		if d.Role == domainauth.RoleNone {
			status, code, msg = http.StatusUnauthorized, "authentication_required", "authentication required"
		}
		WriteJSON(w, status, map[string]string{"error": code, "message": msg, "redirect_to": d.Target})
		return
	}

	target := d.Target
	if target == t.SignIn {
		target = withRedirectParam(target, redirectPathForRequest(r))
	}
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func isAPIRequest(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

func withRedirectParam(target, back string) string {
	if back == "" || back == "/" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("redirect_uri", back)
	u.RawQuery = q.Encode()
	return u.String()
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Scheme-relative references ("//evil.test") carry a host without a scheme.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
