package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMX_RequestDetection(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Hx-Request", "TRUE")
	if !IsHTMX(r) {
		t.Fatal("expected IsHTMX true")
	}

	r2 := httptest.NewRequest(http.MethodGet, "/x", nil)
	if IsHTMX(r2) {
		t.Fatal("expected default to false")
	}
}

func TestHTMX_SetRedirect(t *testing.T) {
	rr := httptest.NewRecorder()
	SetHXRedirect(rr, "/sign-in")
	res := rr.Result()
	t.Cleanup(func() { _ = res.Body.Close() })
	if got := res.Header.Get("Hx-Redirect"); got != "/sign-in" {
		t.Fatalf("HX-Redirect: %q", got)
	}
}
