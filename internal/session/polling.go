// Package session adapts external session providers to ports.SessionSource.
package session

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is how often Polling probes a readiness flag.
const DefaultPollInterval = 150 * time.Millisecond

// Probe is a provider that only exposes a readiness flag and a token getter.
type Probe interface {
	IsReady() bool
	PrincipalID() string
	Token(ctx context.Context) (string, error)
	Claims() map[string]any
}

// Polling turns a Probe into a SessionSource by polling IsReady until it
// reports true, then closing the Ready channel.
type Polling struct {
	probe    Probe
	interval time.Duration

	once  sync.Once
	ready chan struct{}
	stop  chan struct{}
}

// NewPolling starts polling probe in the background. Call Close to stop
// polling a probe that never becomes ready.
func NewPolling(probe Probe, interval time.Duration) *Polling {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Polling{
		probe:    probe,
		interval: interval,
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
	}
	go p.poll()
	return p
}

func (p *Polling) poll() {
	if p.probe.IsReady() {
		close(p.ready)
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if p.probe.IsReady() {
				close(p.ready)
				return
			}
		}
	}
}

// Close stops polling. Ready stays open if it had not closed yet.
func (p *Polling) Close() {
	p.once.Do(func() { close(p.stop) })
}

func (p *Polling) Ready() <-chan struct{} { return p.ready }

func (p *Polling) PrincipalID() string { return p.probe.PrincipalID() }

func (p *Polling) Token(ctx context.Context) (string, error) { return p.probe.Token(ctx) }

func (p *Polling) Claims() map[string]any { return p.probe.Claims() }
