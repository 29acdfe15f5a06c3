package analytics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
)

// StatisticsPath is the endpoint serving the statistics summary.
const StatisticsPath = "/api/statistics"

// HTTPConfig configures the HTTP statistics client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to the artisan data service via REST endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client for the remote statistics endpoint.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var _ StatisticsClient = (*HTTPClient)(nil)

// GetStatistics implements StatisticsClient. The body is validated against
// the statistics schema before it is decoded.
func (c *HTTPClient) GetStatistics(ctx context.Context) (dashboard.StatisticsResponse, error) {
	body, err := c.get(ctx, StatisticsPath)
	if err != nil {
		return dashboard.StatisticsResponse{}, err
	}
	defer body.Close()
	resp, err := dashboard.DecodeStatisticsResponse(body)
	if err != nil {
		return dashboard.StatisticsResponse{}, fmt.Errorf("analytics: decode response: %w", err)
	}
	return resp, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analytics: http request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("analytics: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	return resp.Body, nil
}
