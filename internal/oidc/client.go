// Package oidc authenticates API requests carrying a CAS-issued access token
// by asking the provider's userinfo endpoint.
package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"casbinder/internal/platform/metrics"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/circuit"
)

const (
	discoveryPath    = "openid/.well-known/openid-configuration"
	discoveryMaxAge  = 24 * time.Hour
	maxResponseBytes = 1 << 20
)

type discoveryDoc struct {
	Issuer           string `json:"issuer"`
	UserinfoEndpoint string `json:"userinfo_endpoint"`
}

// Client introspects access tokens. Concurrent calls for the same token
// share one provider round trip.
type Client struct {
	serverURL string
	http      *http.Client
	cache     ClaimsCache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	breaker   *circuit.Breaker
	group     singleflight.Group

	mu         sync.RWMutex
	userinfo   string
	discovered time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClaimsCache caches successful introspections for ttl. A zero ttl
// disables caching.
func WithClaimsCache(cache ClaimsCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreaker refuses introspection while the provider is unavailable.
// Share one breaker with the ticket verifier; both call the same server.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("cas server url is required")
	}
	if !strings.HasSuffix(serverURL, "/") {
		serverURL += "/"
	}
	c := &Client{
		serverURL: serverURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Introspect returns the userinfo claims for token.
//
//   - 200: the decoded JSON body
//   - 401/403: CodeUnauthorized carrying the WWW-Authenticate challenge
//   - anything else: CodeUpstream
func (c *Client) Introspect(ctx context.Context, token string) (Claims, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "access token is required")
	}
	key := TokenKey(token)

	if c.cachingEnabled() {
		claims, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.WarnContext(ctx, "claims cache read failed", "error", err)
		} else if ok {
			return claims, nil
		}
	}

	// The shared fetch must outlive any one caller, so it runs detached from
	// cancellation and is bounded by the HTTP client timeout instead.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if !c.breaker.Allow() {
			return nil, dErrors.Wrap(circuit.ErrOpen, dErrors.CodeUpstream, "cas is unavailable")
		}
		claims, err := c.fetchUserinfo(fetchCtx, token)
		switch change := c.breaker.Record(dErrors.IsRetryable(err)); {
		case change.Opened:
			c.logger.WarnContext(fetchCtx, "provider circuit opened", "breaker", c.breaker.Name())
		case change.Closed:
			c.logger.InfoContext(fetchCtx, "provider circuit closed", "breaker", c.breaker.Name())
		}
		return claims, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "token introspection cancelled")
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	claims := res.Val.(Claims)

	if c.cachingEnabled() {
		if err := c.cache.Set(ctx, key, claims, c.cacheTTL); err != nil {
			c.logger.WarnContext(ctx, "claims cache write failed", "error", err)
		}
	}
	return claims, nil
}

func (c *Client) cachingEnabled() bool {
	return c.cache != nil && c.cacheTTL > 0
}

func (c *Client) fetchUserinfo(ctx context.Context, token string) (Claims, error) {
	endpoint, err := c.userinfoEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	defer c.metrics.ObserveProvider("userinfo", time.Now())

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "invalid userinfo endpoint")
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "userinfo request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "reading userinfo response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var claims Claims
		if err := json.Unmarshal(body, &claims); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "userinfo response is not json")
		}
		return claims, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		challenge := resp.Header.Get("WWW-Authenticate")
		if challenge == "" {
			challenge = "access token rejected"
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, challenge)
	default:
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("CAS returned: %d %s %s",
			resp.StatusCode, truncate(string(body), 50), truncate(fmt.Sprint(resp.Header), 20)))
	}
}

// userinfoEndpoint reads the discovery document, cached for a day.
func (c *Client) userinfoEndpoint(ctx context.Context) (string, error) {
	c.mu.RLock()
	endpoint, at := c.userinfo, c.discovered
	c.mu.RUnlock()
	if endpoint != "" && time.Since(at) < discoveryMaxAge {
		return endpoint, nil
	}

	defer c.metrics.ObserveProvider("discovery", time.Now())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+discoveryPath, nil)
	if err != nil {
		return "", fmt.Errorf("build discovery request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUpstream, "openid discovery failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("openid discovery returned %d", resp.StatusCode))
	}
	var doc discoveryDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUpstream, "unreadable openid configuration")
	}
	if doc.UserinfoEndpoint == "" {
		return "", dErrors.New(dErrors.CodeUpstream, "openid configuration has no userinfo_endpoint")
	}

	c.mu.Lock()
	c.userinfo = doc.UserinfoEndpoint
	c.discovered = time.Now()
	c.mu.Unlock()
	return doc.UserinfoEndpoint, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
