package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  ctfgate.app  ": "ctfgate.app",
		"..foo..":         "foo",
		".":               "",
		"":                "",
	}

	for input, want := range tests {
		if got := sanitizePrefix(input); got != want {
			t.Fatalf("sanitizePrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" authz/decision ": "authz_decision",
		"foo..bar":         "foo.bar",
		"multi  space":     "multi__space",
		"":                 "",
	}

	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " ctfgate "}
	local := map[string]string{"result": " allowed ", "": "ignored", "env": "stage"}

	got := formatTags(global, local)
	want := "|#env:stage,result:allowed,service:ctfgate"
	if got != want {
		t.Fatalf("formatTags() = %q, want %q", got, want)
	}
	if formatTags(nil, nil) != "" {
		t.Fatalf("expected empty tags")
	}
}

func TestClient_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.Enabled() {
		t.Fatalf("disabled client must not report enabled")
	}
	c.Count("x", 1, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var nilClient *Client
	nilClient.Count("x", 1, nil)
	nilClient.Timing("x", time.Second, nil)
}

func TestClient_WritesLines(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen unavailable: %v", err)
	}
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "ctfgate"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer c.Close()

	c.Count("authz.decision", 1, map[string]string{"state": "ALLOWED"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	line := string(buf[:n])
	if !strings.HasPrefix(line, "ctfgate.authz.decision:1|c|#state:ALLOWED") {
		t.Fatalf("unexpected line %q", line)
	}
}
