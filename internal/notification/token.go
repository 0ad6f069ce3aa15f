package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenSkew renews a token this long before it expires.
const DefaultTokenSkew = 30 * time.Second

// TokenProvider supplies a bearer token for relay requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// FetchFunc retrieves a fresh token from the authorization server.
type FetchFunc func(ctx context.Context) (*oauth2.Token, error)

// TokenCache holds one access token with its expiry and refreshes it on demand.
// A token without an expiry is kept until Invalidate.
type TokenCache struct {
	mu        sync.Mutex
	fetch     FetchFunc
	value     string
	expiresAt time.Time
	skew      time.Duration
	now       func() time.Time
}

type TokenCacheOption func(*TokenCache)

func WithSkew(d time.Duration) TokenCacheOption {
	return func(c *TokenCache) { c.skew = d }
}

func WithTokenClock(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) { c.now = now }
}

func NewTokenCache(fetch FetchFunc, opts ...TokenCacheOption) *TokenCache {
	c := &TokenCache{
		fetch: fetch,
		skew:  DefaultTokenSkew,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientCredentialsCache fetches tokens with the OAuth2 client-credentials grant.
func NewClientCredentialsCache(cfg *clientcredentials.Config, opts ...TokenCacheOption) *TokenCache {
	return NewTokenCache(cfg.Token, opts...)
}

func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != "" && (c.expiresAt.IsZero() || c.now().Before(c.expiresAt.Add(-c.skew))) {
		return c.value, nil
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch relay token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("fetch relay token: empty access token")
	}

	c.value = tok.AccessToken
	c.expiresAt = tok.Expiry
	return c.value, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.value = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// StaticToken is a TokenProvider for a pre-shared token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}
