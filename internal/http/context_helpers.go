package httpx

import (
	"context"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/domain/routes"
)

// Unexported context key types avoid collisions across packages.
type (
	sessionKey   struct{}
	principalKey struct{}
	decisionKey  struct{}
	slotKey      struct{}
)

// decisionSlot lets an outer middleware observe the decision made further in.
type decisionSlot struct {
	d   routes.Decision
	set bool
}

func withDecisionSlot(ctx context.Context) (context.Context, *decisionSlot) {
	slot := &decisionSlot{}
	return context.WithValue(ctx, slotKey{}, slot), slot
}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the cookie session, if the request carried one.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// SetPrincipalInContext stores the principal the guard authorized.
func SetPrincipalInContext(ctx context.Context, p domainauth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the zero (anonymous) principal when none was stored.
func PrincipalFromContext(ctx context.Context) domainauth.Principal {
	p, _ := ctx.Value(principalKey{}).(domainauth.Principal)
	return p
}

// SetDecisionInContext stores the guard's decision for downstream handlers.
func SetDecisionInContext(ctx context.Context, d routes.Decision) context.Context {
	if slot, ok := ctx.Value(slotKey{}).(*decisionSlot); ok {
		slot.d, slot.set = d, true
	}
	return context.WithValue(ctx, decisionKey{}, d)
}

func GetDecisionFromContext(ctx context.Context) (routes.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(routes.Decision)
	return d, ok
}
