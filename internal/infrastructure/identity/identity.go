// Package identity adapts the hosted identity service: email/password
// credential sign-in and id-token refresh. The service keys both endpoints
// on the project API key, passed as a query parameter.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

const (
	defaultSignInBaseURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenBaseURL  = "https://securetoken.googleapis.com/v1"
	requestTimeout       = 10 * time.Second
)

type Client struct {
	apiKey        string
	signInBaseURL string
	tokenBaseURL  string
	http          *http.Client
}

// NewClient returns an identity client. The base URLs are overridable for
// tests; empty picks the hosted endpoints.
func NewClient(apiKey, signInBaseURL, tokenBaseURL string) *Client {
	if signInBaseURL == "" {
		signInBaseURL = defaultSignInBaseURL
	}
	if tokenBaseURL == "" {
		tokenBaseURL = defaultTokenBaseURL
	}
	return &Client{
		apiKey:        apiKey,
		signInBaseURL: strings.TrimRight(signInBaseURL, "/"),
		tokenBaseURL:  strings.TrimRight(tokenBaseURL, "/"),
		http:          &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*ports.IdentityTokens, error) {
	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: encode sign-in: %w", err)
	}

	target := c.signInBaseURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("identity: build sign-in: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: sign-in: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("identity: read sign-in response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Wrong password, unknown account, disabled account: all the same
		// answer for the caller.
		if resp.StatusCode == http.StatusBadRequest {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity: sign-in failed (%d)", resp.StatusCode)
	}

	var body struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("identity: decode sign-in response: %w", err)
	}

	return &ports.IdentityTokens{
		UID:          body.LocalID,
		Email:        body.Email,
		IDToken:      body.IDToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    expiry(body.ExpiresIn),
	}, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*ports.IdentityTokens, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	target := c.tokenBaseURL + "/token?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("identity: build refresh: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: refresh: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("identity: read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: refresh failed (%d)", resp.StatusCode)
	}

	var body struct {
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("identity: decode refresh response: %w", err)
	}

	return &ports.IdentityTokens{
		UID:          body.UserID,
		IDToken:      body.IDToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    expiry(body.ExpiresIn),
	}, nil
}

// expiry converts the service's "seconds from now" string. Unparseable
// values fall back to an hour, the service's fixed token lifetime.
func expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(strings.TrimSpace(expiresIn))
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return time.Now().Add(time.Duration(secs) * time.Second)
}
