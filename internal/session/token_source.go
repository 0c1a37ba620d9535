package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource adapts an oauth2.TokenSource for service-to-service calls.
// It is always ready; oauth2.ReuseTokenSource handles rotation.
type TokenSource struct {
	principal string
	src       oauth2.TokenSource
	ready     chan struct{}
}

// NewTokenSource wraps src. principal names the calling service.
func NewTokenSource(principal string, src oauth2.TokenSource) *TokenSource {
	ready := make(chan struct{})
	close(ready)
	return &TokenSource{principal: principal, src: src, ready: ready}
}

// NewStatic returns a source that always presents token.
func NewStatic(principal, token string) *TokenSource {
	return NewTokenSource(principal, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// ClientCredentials holds the OAuth2 client-credentials grant parameters.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// NewClientCredentials builds a rotating source from the client-credentials grant.
func NewClientCredentials(ctx context.Context, cc ClientCredentials) *TokenSource {
	cfg := clientcredentials.Config{
		ClientID:     cc.ClientID,
		ClientSecret: cc.ClientSecret,
		TokenURL:     cc.TokenURL,
		Scopes:       cc.Scopes,
	}
	return NewTokenSource(cc.ClientID, cfg.TokenSource(ctx))
}

func (s *TokenSource) Ready() <-chan struct{} { return s.ready }

func (s *TokenSource) PrincipalID() string { return s.principal }

func (s *TokenSource) Token(_ context.Context) (string, error) {
	tok, err := s.src.Token()
	if err != nil {
		return "", fmt.Errorf("oauth2 token: %w", err)
	}
	return tok.AccessToken, nil
}

func (s *TokenSource) Claims() map[string]any { return nil }
