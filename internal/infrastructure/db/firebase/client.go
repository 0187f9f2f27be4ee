// Package firebase adapts the hosted document store's REST surface. Every
// call target is the database base URL plus a path with a ".json" suffix,
// optionally carrying the caller's identity token as an "auth" query
// parameter. This wire convention is preserved bit-exact.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client performs signed JSON calls against the document store.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// endpoint builds the call target for a path. The path may already carry a
// query string; the auth parameter joins with '&' in that case.
func (c *Client) endpoint(path, authToken string) string {
	clean := strings.TrimLeft(path, "/")
	query := ""
	if i := strings.Index(clean, "?"); i >= 0 {
		clean, query = clean[:i], clean[i:]
	}
	clean = strings.TrimSuffix(clean, ".json")

	target := c.baseURL + "/" + clean + ".json" + query
	if authToken == "" {
		return target
	}
	join := "?"
	if query != "" {
		join = "&"
	}
	return target + join + "auth=" + url.QueryEscape(authToken)
}

// do issues a request and decodes the JSON response into out when out is
// non-nil. Empty and "null" bodies decode to nothing.
func (c *Client) do(ctx context.Context, method, path, authToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("firebase: encode payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, authToken), reader)
	if err != nil {
		return fmt.Errorf("firebase: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("firebase: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("firebase: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(raw))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("firebase: request failed (%d): %s", resp.StatusCode, detail)
	}

	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("firebase: decode response: %w", err)
	}
	return nil
}

// Ping issues a shallow read of the resources collection, enough to prove
// the database endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "resources.json?shallow=true", "", nil, nil)
}
