package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/ctf-console/internal/errors"
)

func TestEmitRequest_Success(t *testing.T) {
	rec := NewRecorder()
	EmitRequest(rec, RequestMetric{Method: "GET", Status: 200, Attempts: 1, Duration: time.Millisecond})

	assert.Equal(t, int64(1), rec.CountOf("apiclient.request"))
	assert.Equal(t, int64(0), rec.CountOf("apiclient.retry"))
	assert.Equal(t, ResultSuccess, rec.LastTags("apiclient.request")["result"])
	assert.Equal(t, 1, rec.Timings["apiclient.latency"])
}

func TestEmitRequest_ErrorWithRetries(t *testing.T) {
	rec := NewRecorder()
	EmitRequest(rec, RequestMetric{Method: "POST", Attempts: 4, Err: apperrors.Server(503, "down", 4)})

	tags := rec.LastTags("apiclient.request")
	assert.Equal(t, ResultError, tags["result"])
	assert.Equal(t, "server_error", tags["error_class"])
	assert.Equal(t, int64(3), rec.CountOf("apiclient.retry"))
}

func TestEmitDecision(t *testing.T) {
	rec := NewRecorder()
	EmitDecision(rec, DecisionMetric{State: "ALLOWED", Class: "ADMIN_AREA", Source: "claims"})

	assert.Equal(t, int64(1), rec.CountOf("authz.decision"))
	assert.Equal(t, map[string]string{"state": "ALLOWED", "class": "ADMIN_AREA", "source": "claims"},
		rec.LastTags("authz.decision"))
}

func TestEmitNilSink(t *testing.T) {
	EmitRequest(nil, RequestMetric{})
	EmitDecision(nil, DecisionMetric{})
}

func TestEmitNilRecorder(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		EmitDecision(rec, DecisionMetric{State: "ALLOWED", Class: "ADMIN_AREA"})
		EmitRequest(rec, RequestMetric{Method: "GET", Status: 200, Attempts: 1})
	})
}
