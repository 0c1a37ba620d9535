package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// newUpstreamProxy forwards allowed navigations to the console frontend. The
// authorized principal and role are passed upstream as headers and any
// client-supplied copies are stripped.
func newUpstreamProxy(upstream *url.URL, logger *slog.Logger) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			pr.Out.Header.Del("X-Console-Principal")
			pr.Out.Header.Del("X-Console-Role")
			if d, ok := GetDecisionFromContext(pr.In.Context()); ok && d.Role.Known() {
				pr.Out.Header.Set("X-Console-Principal", PrincipalFromContext(pr.In.Context()).ID)
				pr.Out.Header.Set("X-Console-Role", string(d.Role))
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, r.Context().Err()) {
				return
			}
			logger.WarnContext(r.Context(), "upstream proxy failed", "path", r.URL.Path, "error", err)
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "upstream_unavailable", Err: errors.New("upstream unavailable")})
		},
	}
}
