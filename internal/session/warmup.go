package session

import (
	"context"
	"sync/atomic"

	"github.com/cenkalti/backoff/v5"
)

// Warmup is a Probe over a TokenSource that reports ready once the first
// token has been fetched. Wrap it in Polling to get a SessionSource whose
// Ready channel gates calls on the token endpoint being reachable.
type Warmup struct {
	src   *TokenSource
	ready atomic.Bool
}

// NewWarmup fetches the first token in the background, retrying with
// exponential backoff until it succeeds or ctx is done.
func NewWarmup(ctx context.Context, src *TokenSource) *Warmup {
	w := &Warmup{src: src}
	go w.fetch(ctx)
	return w
}

func (w *Warmup) fetch(ctx context.Context) {
	_, err := backoff.Retry(ctx, func() (string, error) {
		return w.src.Token(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(0))
	if err == nil {
		w.ready.Store(true)
	}
}

func (w *Warmup) IsReady() bool { return w.ready.Load() }

func (w *Warmup) PrincipalID() string { return w.src.PrincipalID() }

func (w *Warmup) Token(ctx context.Context) (string, error) { return w.src.Token(ctx) }

func (w *Warmup) Claims() map[string]any { return w.src.Claims() }
