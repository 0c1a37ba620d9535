package apiclient

import (
	"context"
	"strings"
	"time"
)

// credential waits up to ReadyTimeout for the session and returns a freshly
// fetched token, or "" when the call must proceed unauthenticated.
func (c *Client) credential(ctx context.Context) string {
	if c.session == nil {
		return ""
	}
	if !c.awaitReady(ctx) {
		c.logger.WarnContext(ctx, "session not ready, sending request without credential",
			"ready_timeout", c.cfg.ReadyTimeout)
		return ""
	}
	if c.session.PrincipalID() == "" {
		return ""
	}

	token, err := c.session.Token(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "token fetch failed, sending request without credential", "error", err)
		return ""
	}
	return strings.TrimSpace(token)
}

func (c *Client) awaitReady(ctx context.Context) bool {
	ready := c.session.Ready()
	if ready == nil {
		return false
	}
	select {
	case <-ready:
		return true
	default:
	}
	if c.cfg.ReadyTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(c.cfg.ReadyTimeout)
	defer timer.Stop()
	select {
	case <-ready:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
