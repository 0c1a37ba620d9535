package metrics

import (
	"sync"
	"time"

	obserrors "github.com/target/ctf-console/internal/observability/errors"
	"github.com/target/ctf-console/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// RequestMetric captures one logical outbound API call.
type RequestMetric struct {
	Method   string
	Status   int
	Attempts int
	Duration time.Duration
	Err      error
}

// EmitRequest emits the outcome of an outbound API call.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"method": in.Method, "result": ResultSuccess}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("apiclient.request", 1, tags)
	if in.Attempts > 1 {
		sink.Count("apiclient.retry", int64(in.Attempts-1), CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("apiclient.latency", in.Duration, CloneTags(tags))
	}
}

// DecisionMetric captures one navigation authorization.
type DecisionMetric struct {
	State    string
	Class    string
	Source   string
	Duration time.Duration
}

// EmitDecision emits the outcome of a route authorization.
func EmitDecision(sink statsd.Sink, in DecisionMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"state": in.State, "class": in.Class}
	if in.Source != "" {
		tags["source"] = in.Source
	}
	sink.Count("authz.decision", 1, tags)
	if in.Duration > 0 {
		sink.Timing("authz.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	mu      sync.Mutex
	Counts  map[string]int64
	Timings map[string]int
	Tags    map[string][]map[string]string
}

var _ statsd.Sink = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Counts:  map[string]int64{},
		Timings: map[string]int{},
		Tags:    map[string][]map[string]string{},
	}
}

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Counts[name] += value
	r.Tags[name] = append(r.Tags[name], CloneTags(tags))
}

func (r *Recorder) Timing(name string, _ time.Duration, _ map[string]string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Timings[name]++
}

// CountOf returns the accumulated counter value for name.
func (r *Recorder) CountOf(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[name]
}

// LastTags returns the tags of the most recent counter emission for name.
func (r *Recorder) LastTags(name string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.Tags[name]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}
