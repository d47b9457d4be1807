package emissions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultFetchTimeout bounds one feed read.
const DefaultFetchTimeout = 5 * time.Second

// Client reads the emissions feed of a running dashboard backend.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client for the feed at url
// (e.g. http://localhost:5000/api/total_emissions).
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Client{url: url, httpClient: httpClient}
}

// Fetch reads the feed once. Failures are *TelemetryFetchError.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Snapshot{}, &TelemetryFetchError{URL: c.url, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, &TelemetryFetchError{URL: c.url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Snapshot{}, &TelemetryFetchError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%s", body),
		}
	}

	var feed Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return Snapshot{}, &TelemetryFetchError{URL: c.url, Cause: fmt.Errorf("decode feed: %w", err)}
	}
	snap := feed.Snapshot()
	snap.ComputedAt = time.Now().UTC()
	return snap, nil
}
