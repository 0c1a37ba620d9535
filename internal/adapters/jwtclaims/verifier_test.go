package jwtclaims

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/ctf-console/internal/errors"
	"github.com/target/ctf-console/internal/ports"
)

var _ ports.TokenVerifier = (*Verifier)(nil)

var testSecret = []byte("ctf-console-test-secret")

func hmacKey(*jwt.Token) (any, error) { return testSecret, nil }

func newVerifier(t *testing.T, aud ...string) *Verifier {
	t.Helper()
	v, err := New(Config{Issuer: "https://idp.test", Audiences: aud, AllowedAlgs: []string{"HS256"}}, hmacKey)
	require.NoError(t, err)
	return v
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":  "https://idp.test",
		"sub":  "player-9",
		"aud":  []string{"ctf-console"},
		"exp":  time.Now().Add(time.Hour).Unix(),
		"role": "ADMIN",
	}
}

func TestVerifier_Valid(t *testing.T) {
	v := newVerifier(t, "ctf-console")

	p, err := v.Verify(context.Background(), sign(t, validClaims()))

	require.NoError(t, err)
	assert.Equal(t, "player-9", p.ID)
	assert.Equal(t, "ADMIN", p.Claims["role"])
}

func TestVerifier_Rejects(t *testing.T) {
	v := newVerifier(t, "ctf-console")

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{"no expiry", func(c jwt.MapClaims) { delete(c, "exp") }},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.test" }},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "other" }},
		{"missing subject", func(c jwt.MapClaims) { delete(c, "sub") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			tt.mutate(c)
			_, err := v.Verify(context.Background(), sign(t, c))
			require.Error(t, err)
			assert.True(t, apperrors.IsUnauthorized(err))
		})
	}
}

func TestVerifier_RejectsWrongKeyAndAlg(t *testing.T) {
	v := newVerifier(t)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), forged)
	assert.True(t, apperrors.IsUnauthorized(err))

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, validClaims()).SignedString(testSecret)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), hs384)
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = v.Verify(context.Background(), "  ")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestVerifier_NoAudienceConfigured(t *testing.T) {
	v := newVerifier(t)
	c := validClaims()
	delete(c, "aud")

	p, err := v.Verify(context.Background(), sign(t, c))
	require.NoError(t, err)
	assert.Equal(t, "player-9", p.ID)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Issuer: "x"}, nil)
	require.Error(t, err)
	_, err = New(Config{}, hmacKey)
	require.Error(t, err)

	v, err := New(Config{Issuer: "x"}, hmacKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"RS256"}, v.cfg.AllowedAlgs)
	assert.Equal(t, 60*time.Second, v.cfg.Leeway)

	_, err = NewJWKS(context.Background(), Config{Issuer: "x"}, "")
	require.Error(t, err)
}
