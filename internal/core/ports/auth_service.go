package ports

import (
	"context"
	"time"

	"github.com/quanlytn/resource-portal/internal/core/domain"
)

// IdentityTokens is what the hosted identity service hands back for a
// credential sign-in or a token refresh.
type IdentityTokens struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// IdentityProvider wraps the hosted identity service's REST surface.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*IdentityTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*IdentityTokens, error)
}

// SessionStore keeps portal sessions for the lifetime of a login. Get for an
// unknown or expired id returns domain.ErrSessionNotFound.
type SessionStore interface {
	Save(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// LoginInput is a login form submission. Username may be a bare account name
// or a full email address.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the signed portal session token plus a routing hint:
// Role is the freshly looked-up role, empty when the lookup failed or no
// role is assigned (protected surfaces re-check on every request anyway).
type LoginResult struct {
	Token    string
	Role     string
	UID      string
	Username string
	Email    string
}

// Deny reasons returned by Authorize.
const (
	DenyNoSession       = "no_session"
	DenyRoleUnavailable = "role_unavailable"
	DenyWrongRole       = "wrong_role"
)

// Verdict is a pure authorization answer. Navigation and sign-out side
// effects are the caller's concern.
type Verdict struct {
	Allowed bool
	Role    string
	Reason  string
}

// AuthService defines login, logout, and the role-gated page guard.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	// Logout destroys the session best-effort; it never fails from the
	// caller's view.
	Logout(ctx context.Context, sessionID string)
	// Authorize freshly checks the session's role against requiredRole.
	// An unavailable role mapping denies (fail-closed). An empty
	// requiredRole only requires a session.
	Authorize(ctx context.Context, sess *domain.Session, requiredRole string) Verdict
}
