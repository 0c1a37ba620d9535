package httpx

import (
	"net/http"

	"github.com/target/ctf-console/internal/domain/routes"
)

// SessionHandlers expose the caller's identity and route decisions to the console UI.
type SessionHandlers struct {
	Authorizer RouteAuthorizer
}

type decisionView struct {
	Path   string `json:"path"`
	State  string `json:"state"`
	Class  string `json:"class"`
	Role   string `json:"role"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

func viewOf(d routes.Decision) decisionView {
	return decisionView{
		Path:   d.Path,
		State:  string(d.State),
		Class:  string(d.Class),
		Role:   string(d.Role),
		Source: string(d.Source),
		Target: d.Target,
	}
}

// Whoami returns the principal the guard authorized for this request.
// GET /api/session.
func (h *SessionHandlers) Whoami(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	body := map[string]any{"authenticated": p.Authenticated()}
	if p.Authenticated() {
		body["principal_id"] = p.ID
	}
	if d, ok := GetDecisionFromContext(r.Context()); ok {
		body["role"] = d.Role
		body["source"] = d.Source
	}
	if s, ok := GetSessionFromContext(r.Context()); ok {
		body["email"] = s.Email
		body["expires_at"] = s.ExpiresAt
	}
	WriteJSON(w, http.StatusOK, body)
}

// Check authorizes a prospective navigation without performing it.
// GET /api/authorize?path=/admin/teams.
func (h *SessionHandlers) Check(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_path", "message": "path is required"})
		return
	}
	d := h.Authorizer.Authorize(r.Context(), path, PrincipalFromContext(r.Context()))
	WriteJSON(w, http.StatusOK, viewOf(d))
}

type checkBatchRequest struct {
	Paths []string `json:"paths"`
}

const maxBatchPaths = 50

// CheckBatch authorizes several prospective navigations, e.g. to decide which
// menu entries to render. POST /api/authorize {"paths": [...]}.
func (h *SessionHandlers) CheckBatch(w http.ResponseWriter, r *http.Request) {
	var req checkBatchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 || len(req.Paths) > maxBatchPaths {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_paths",
			"message": "paths must hold between 1 and 50 entries",
		})
		return
	}
	decisions := h.Authorizer.AuthorizeAll(r.Context(), req.Paths, PrincipalFromContext(r.Context()))
	out := make([]decisionView, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, viewOf(d))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"decisions": out})
}
