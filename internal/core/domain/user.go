package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleDownload = "download"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrSessionNotFound = errors.New("session not found")
var ErrForbidden = errors.New("access forbidden")

// Session is the portal-side state of a signed-in user. The backend identity
// tokens it carries are attached to document-store and blob-store calls so
// the hosted access rules can authorize them.
type Session struct {
	ID           string `json:"id"`
	UID          string `json:"uid"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the id token expiry, not the session lifetime.
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile is the denormalized per-user record written best-effort after a
// successful login. No view in the portal reads it back.
type Profile struct {
	UID         string    `json:"uid"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	LastLoginAt time.Time `json:"last_login_at"`
}
