package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client invokes a remote audit engine service over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client for the engine at baseURL. The HTTP client
// carries no timeout of its own; callers bound each invocation through ctx
// (audits routinely take minutes).
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// Audit runs one audit remotely. A non-2xx response is decoded as
// {success:false, error} and surfaced as an error.
func (c *Client) Audit(ctx context.Context, rawURL, formFactor string, clientID *int64) (*Result, error) {
	q := url.Values{}
	q.Set("url", rawURL)
	q.Set("form_factor", formFactor)
	if clientID != nil {
		q.Set("client_id", strconv.FormatInt(*clientID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/audit?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return nil, fmt.Errorf("engine: %s", body.Error)
		}
		return nil, fmt.Errorf("engine: unexpected status %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("engine: decode response: %w", err)
	}
	return &res, nil
}
