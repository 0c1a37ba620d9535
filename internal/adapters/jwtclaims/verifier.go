// Package jwtclaims verifies bearer access tokens presented to the console API.
package jwtclaims

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/ctf-console/internal/domain/auth"
	apperrors "github.com/target/ctf-console/internal/errors"
)

// Config controls token validation.
type Config struct {
	Issuer      string
	Audiences   []string
	AllowedAlgs []string      // default RS256
	Leeway      time.Duration // default 60s
}

// Verifier validates JWTs against a key function and maps them to principals.
type Verifier struct {
	cfg     Config
	keyfunc jwt.Keyfunc
}

// NewJWKS fetches and refreshes signing keys from jwksURI in the background
// until ctx is done.
func NewJWKS(ctx context.Context, cfg Config, jwksURI string) (*Verifier, error) {
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return New(cfg, kf.Keyfunc)
}

// New builds a Verifier over an arbitrary key function.
func New(cfg Config, kf jwt.Keyfunc) (*Verifier, error) {
	if kf == nil {
		return nil, errors.New("key function is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if len(cfg.AllowedAlgs) == 0 {
		cfg.AllowedAlgs = []string{"RS256"}
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 60 * time.Second
	}
	return &Verifier{cfg: cfg, keyfunc: kf}, nil
}

// Verify returns an Unauthorized error for any invalid token.
func (v *Verifier) Verify(_ context.Context, token string) (domainauth.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Principal{}, apperrors.Unauthorized("empty token")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods(v.cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithLeeway(v.cfg.Leeway),
	)
	parsed, err := parser.Parse(token, v.keyfunc)
	if err != nil {
		return domainauth.Principal{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "token verification failed")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domainauth.Principal{}, apperrors.Unauthorized("invalid claims type")
	}
	if len(v.cfg.Audiences) > 0 {
		aud, _ := claims.GetAudience()
		if !slices.ContainsFunc(aud, func(a string) bool { return slices.Contains(v.cfg.Audiences, a) }) {
			return domainauth.Principal{}, apperrors.Unauthorized("audience mismatch")
		}
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return domainauth.Principal{}, apperrors.Unauthorized("missing sub")
	}
	return domainauth.Principal{ID: sub, Claims: map[string]any(claims)}, nil
}
