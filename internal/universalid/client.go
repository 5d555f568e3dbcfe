// Package universalid resolves emails to universal ids through the CAS
// batch lookup API.
package universalid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"casbinder/internal/binder/bulk"
	"casbinder/internal/platform/metrics"
	dErrors "casbinder/pkg/domain-errors"
)

const (
	lookupPath       = "api/universal_ids/"
	maxResponseBytes = 4 << 20
)

type lookupRequest struct {
	Emails []string `json:"emails"`
}

type lookupResponse struct {
	UniversalIDs map[string]string    `json:"universal_ids"`
	Errors       []bulk.ProviderError `json:"errors"`
}

// Client calls the batch lookup endpoint.
type Client struct {
	serverURL string
	http      *http.Client
	metrics   *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
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
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch resolves emails in one request. Per-email failures come back as a
// *bulk.BatchError; anything else unexpected is an upstream error.
func (c *Client) Fetch(ctx context.Context, emails []string) (map[string]string, error) {
	defer c.metrics.ObserveProvider("universal_ids", time.Now())

	payload, err := json.Marshal(lookupRequest{Emails: emails})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+lookupPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "universal id lookup request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "reading universal id lookup response")
	}

	var parsed lookupResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode == http.StatusOK {
		if decodeErr != nil {
			return nil, dErrors.Wrap(decodeErr, dErrors.CodeUpstream, "universal id lookup response is not json")
		}
		if parsed.UniversalIDs == nil {
			parsed.UniversalIDs = map[string]string{}
		}
		return parsed.UniversalIDs, nil
	}
	if decodeErr != nil || len(parsed.Errors) == 0 {
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("CAS returned: %d", resp.StatusCode))
	}
	return nil, bulk.NewBatchError(parsed.Errors)
}
