package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/ctf-console/internal/domain/auth"
	"github.com/target/ctf-console/internal/domain/routes"
)

func TestSessionContext(t *testing.T) {
	if s, ok := GetSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleUser}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)

	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))
}

func TestPrincipalContext(t *testing.T) {
	assert.False(t, PrincipalFromContext(context.Background()).Authenticated())

	ctx := SetPrincipalInContext(context.Background(), domainauth.Principal{ID: "p1"})
	assert.Equal(t, "p1", PrincipalFromContext(ctx).ID)
}

func TestDecisionContext_FillsSlot(t *testing.T) {
	_, ok := GetDecisionFromContext(context.Background())
	assert.False(t, ok)

	ctx, slot := withDecisionSlot(context.Background())
	d := routes.Decision{Path: "/admin", State: routes.StateAllowed, Role: domainauth.RoleAdmin}
	ctx = SetDecisionInContext(ctx, d)

	got, ok := GetDecisionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, d, got)
	assert.True(t, slot.set)
	assert.Equal(t, d, slot.d)
}
