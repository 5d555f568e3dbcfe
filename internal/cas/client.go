// Package cas verifies service tickets against a CAS server.
package cas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"

	"casbinder/internal/binder/models"
	"casbinder/internal/platform/metrics"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/circuit"
)

const maxResponseBytes = 1 << 20

// Client talks to one CAS server. ServerURL always ends with a slash.
type Client struct {
	serverURL       string
	protocolVersion int
	http            *http.Client
	metrics         *metrics.Metrics
	logger          *slog.Logger
	breaker         *circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithProtocolVersion selects CAS 2 or CAS 3 validation. Default is 3.
func WithProtocolVersion(v int) Option {
	return func(c *Client) {
		c.protocolVersion = v
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

// WithBreaker fails verification fast while the provider is unavailable.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("cas server url is required")
	}
	if _, err := url.ParseRequestURI(serverURL); err != nil {
		return nil, fmt.Errorf("invalid cas server url: %w", err)
	}
	if !strings.HasSuffix(serverURL, "/") {
		serverURL += "/"
	}
	c := &Client{
		serverURL:       serverURL,
		protocolVersion: 3,
		http:            &http.Client{Timeout: 10 * time.Second},
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.protocolVersion != 2 && c.protocolVersion != 3 {
		return nil, fmt.Errorf("unsupported cas protocol version %d", c.protocolVersion)
	}
	return c, nil
}

// ServerURL returns the configured base URL.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// LoginURL is where browsers are sent to sign in for service.
func (c *Client) LoginURL(service string) string {
	return c.serverURL + "login?" + url.Values{"service": {service}}.Encode()
}

// LogoutURL ends the CAS session, optionally returning to service.
func (c *Client) LogoutURL(service string) string {
	if service == "" {
		return c.serverURL + "logout"
	}
	return c.serverURL + "logout?" + url.Values{"service": {service}}.Encode()
}

func (c *Client) validateURL(ticket, service string) string {
	path := "p3/serviceValidate"
	if c.protocolVersion == 2 {
		path = "serviceValidate"
	}
	return c.serverURL + path + "?" + url.Values{"ticket": {ticket}, "service": {service}}.Encode()
}

// VerifyTicket validates ticket for service. A rejected ticket is not an
// error: the returned identity has an empty UniversalID. Transport failures
// and unreadable responses are upstream errors.
func (c *Client) VerifyTicket(ctx context.Context, ticket, service string) (*models.VerifiedIdentity, error) {
	if ticket == "" {
		return &models.VerifiedIdentity{}, nil
	}
	if !c.breaker.Allow() {
		return nil, dErrors.Wrap(circuit.ErrOpen, dErrors.CodeUpstream, "cas is unavailable")
	}
	identity, err := c.verify(ctx, ticket, service)
	logBreakerChange(ctx, c.logger, c.breaker, c.breaker.Record(dErrors.IsRetryable(err)))
	return identity, err
}

func (c *Client) verify(ctx context.Context, ticket, service string) (*models.VerifiedIdentity, error) {
	defer c.metrics.ObserveProvider("service_validate", time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.validateURL(ticket, service), nil)
	if err != nil {
		return nil, fmt.Errorf("build service validate request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "cas service validate request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "reading cas response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("CAS returned: %d", resp.StatusCode))
	}

	identity, err := ParseServiceResponse(body)
	if err != nil {
		return nil, err
	}
	if identity.UniversalID == "" {
		c.logger.InfoContext(ctx, "cas ticket rejected", "service", service)
	}
	return identity, nil
}

// ParseServiceResponse reads a cas:serviceResponse document. Elements are
// matched by local name so any namespace prefix is accepted.
func ParseServiceResponse(body []byte) (*models.VerifiedIdentity, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "unreadable cas response")
	}
	root := doc.Root()
	if root == nil || root.Tag != "serviceResponse" {
		return nil, dErrors.New(dErrors.CodeUpstream, "cas response is not a serviceResponse")
	}

	success := child(root, "authenticationSuccess")
	if success == nil {
		return &models.VerifiedIdentity{}, nil
	}

	identity := &models.VerifiedIdentity{Attributes: map[string]string{}}
	if user := child(success, "user"); user != nil {
		identity.UniversalID = strings.TrimSpace(user.Text())
	}
	if attrs := child(success, "attributes"); attrs != nil {
		for _, el := range attrs.ChildElements() {
			if _, seen := identity.Attributes[el.Tag]; seen {
				continue
			}
			identity.Attributes[el.Tag] = strings.TrimSpace(el.Text())
		}
	}
	if pgt := child(success, "proxyGrantingTicket"); pgt != nil {
		identity.ProxyGrantingTicketIOU = strings.TrimSpace(pgt.Text())
	}
	return identity, nil
}

func child(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func logBreakerChange(ctx context.Context, logger *slog.Logger, b *circuit.Breaker, change circuit.Change) {
	switch {
	case change.Opened:
		logger.WarnContext(ctx, "provider circuit opened", "breaker", b.Name())
	case change.Closed:
		logger.InfoContext(ctx, "provider circuit closed", "breaker", b.Name())
	}
}
