package httpx

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/target/ctf-console/internal/ports"
	"github.com/target/ctf-console/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       *service.AuthService
	Authorizer *service.Authorizer
	// Verifier authenticates bearer tokens on API calls. Optional.
	Verifier ports.TokenVerifier
	// Upstream is the console frontend that allowed navigations are proxied to.
	// Optional; without it unknown paths return 404.
	Upstream     *url.URL
	CookieDomain string
	LogoutURL    string
	Readiness    map[string]ReadinessCheck
	Logger       *slog.Logger
}

// NewRouter creates the gateway handler: Recover, Logging, RouteGuard, then the mux.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Readiness))

	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			LogoutURL:    services.LogoutURL,
			Logger:       logger,
		})
	}

	sessions := &SessionHandlers{Authorizer: services.Authorizer}
	mux.HandleFunc("GET /api/session", sessions.Whoami)
	mux.HandleFunc("GET /api/authorize", sessions.Check)
	mux.HandleFunc("POST /api/authorize", sessions.CheckBatch)

	if services.Upstream != nil {
		mux.Handle("/", newUpstreamProxy(services.Upstream, logger))
	}

	guard := GuardOptions{Authorizer: services.Authorizer, Verifier: services.Verifier, Logger: logger}
	if services.Auth != nil {
		guard.Sessions = services.Auth
	}

	var h http.Handler = mux
	h = RouteGuard(guard)(h)
	h = Logging(logger)(h)
	h = Recover(logger)(h)
	return h
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}
