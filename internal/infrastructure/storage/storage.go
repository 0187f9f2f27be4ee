// Package storage adapts the hosted blob store's bucket/object REST surface.
// Objects are addressed as /v0/b/{bucket}/o/{escaped-object-path} and every
// call carries the caller's identity token as a bearer credential.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://firebasestorage.googleapis.com"

// Uploads can carry real files; give them a generous deadline.
const requestTimeout = 2 * time.Minute

type Client struct {
	baseURL string
	bucket  string
	http    *http.Client
}

// NewClient returns a blob store client for bucket. baseURL is overridable
// for tests; empty picks the hosted endpoint.
func NewClient(bucket, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// escapeObject escapes an object path the way the bucket API expects: one
// path segment with '/' encoded as %2F.
func escapeObject(objectPath string) string {
	return strings.ReplaceAll(url.QueryEscape(objectPath), "+", "%20")
}

func (c *Client) objectURL(objectPath, query string) string {
	u := fmt.Sprintf("%s/v0/b/%s/o/%s", c.baseURL, url.QueryEscape(c.bucket), escapeObject(objectPath))
	if query != "" {
		u += "?" + query
	}
	return u
}

func (c *Client) Upload(ctx context.Context, authToken, objectPath, contentType string, r io.Reader) error {
	target := fmt.Sprintf("%s/v0/b/%s/o?uploadType=media&name=%s",
		c.baseURL, url.QueryEscape(c.bucket), escapeObject(objectPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, r)
	if err != nil {
		return fmt.Errorf("storage: build upload: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	setBearer(req, authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("upload", objectPath, resp)
	}
	return nil
}

// Fetch streams an object. The caller owns the returned body.
func (c *Client) Fetch(ctx context.Context, authToken, objectPath string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(objectPath, "alt=media"), nil)
	if err != nil {
		return nil, "", fmt.Errorf("storage: build fetch: %w", err)
	}
	setBearer(req, authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("storage: fetch %s: %w", objectPath, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, "", statusError("fetch", objectPath, resp)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) Delete(ctx context.Context, authToken, objectPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(objectPath, ""), nil)
	if err != nil {
		return fmt.Errorf("storage: build delete: %w", err)
	}
	setBearer(req, authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	// 404 counts as deleted: the object is gone either way.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("delete", objectPath, resp)
	}
	return nil
}

func setBearer(req *http.Request, authToken string) {
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
}

func statusError(op, objectPath string, resp *http.Response) error {
	return fmt.Errorf("storage: %s %s failed (%d)", op, objectPath, resp.StatusCode)
}
