package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

const testSecret = "test-secret"

type stubSessionStore struct {
	sessions map[string]*domain.Session
	saved    []*domain.Session
	deleted  []string
}

func newStubSessionStore(sessions ...*domain.Session) *stubSessionStore {
	s := &stubSessionStore{sessions: make(map[string]*domain.Session)}
	for _, sess := range sessions {
		clone := *sess
		s.sessions[sess.ID] = &clone
	}
	return s
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	clone := *sess
	s.sessions[sess.ID] = &clone
	s.saved = append(s.saved, &clone)
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.sessions, id)
	return nil
}

type stubIdentity struct {
	refreshFn func(ctx context.Context, refreshToken string) (*ports.IdentityTokens, error)
}

func (s *stubIdentity) SignIn(_ context.Context, _, _ string) (*ports.IdentityTokens, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIdentity) Refresh(ctx context.Context, refreshToken string) (*ports.IdentityTokens, error) {
	if s.refreshFn == nil {
		return nil, errors.New("refresh not expected")
	}
	return s.refreshFn(ctx, refreshToken)
}

func signTestToken(t *testing.T, sid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"uid": "uid_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, token string, sessions ports.SessionStore, identity ports.IdentityProvider) (*httptest.ResponseRecorder, *domain.Session, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Session
	mw := Auth(testSecret, sessions, identity, zerolog.Nop())
	err := mw(func(c echo.Context) error {
		seen = Session(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func TestAuth_ValidTokenLoadsSession(t *testing.T) {
	sessions := newStubSessionStore(&domain.Session{
		ID:        "sess_1",
		UID:       "uid_1",
		IDToken:   "idtoken_1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	_, seen, err := runAuth(t, signTestToken(t, "sess_1"), sessions, &stubIdentity{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.ID != "sess_1" || seen.IDToken != "idtoken_1" {
		t.Fatalf("expected session in context, got %+v", seen)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	_, _, err := runAuth(t, "", newStubSessionStore(), &stubIdentity{})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_WrongSecretRejected(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "sess_1"})
	signed, _ := tok.SignedString([]byte("other-secret"))

	_, _, err := runAuth(t, signed, newStubSessionStore(), &stubIdentity{})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_UnknownSessionRejected(t *testing.T) {
	_, _, err := runAuth(t, signTestToken(t, "sess_gone"), newStubSessionStore(), &stubIdentity{})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_ExpiringTokenRefreshes(t *testing.T) {
	sessions := newStubSessionStore(&domain.Session{
		ID:           "sess_1",
		UID:          "uid_1",
		IDToken:      "stale",
		RefreshToken: "refresh_1",
		ExpiresAt:    time.Now().Add(10 * time.Second),
	})
	identity := &stubIdentity{
		refreshFn: func(_ context.Context, refreshToken string) (*ports.IdentityTokens, error) {
			if refreshToken != "refresh_1" {
				t.Fatalf("unexpected refresh token %q", refreshToken)
			}
			return &ports.IdentityTokens{
				IDToken:      "fresh",
				RefreshToken: "refresh_2",
				ExpiresAt:    time.Now().Add(time.Hour),
			}, nil
		},
	}

	_, seen, err := runAuth(t, signTestToken(t, "sess_1"), sessions, identity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.IDToken != "fresh" || seen.RefreshToken != "refresh_2" {
		t.Fatalf("expected refreshed tokens, got %+v", seen)
	}
	if len(sessions.saved) != 1 || sessions.saved[0].IDToken != "fresh" {
		t.Fatalf("refreshed session must be persisted")
	}
}

func TestAuth_FailedRefreshDestroysSession(t *testing.T) {
	sessions := newStubSessionStore(&domain.Session{
		ID:           "sess_1",
		RefreshToken: "refresh_1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})
	identity := &stubIdentity{
		refreshFn: func(_ context.Context, _ string) (*ports.IdentityTokens, error) {
			return nil, errors.New("TOKEN_EXPIRED")
		},
	}

	_, _, err := runAuth(t, signTestToken(t, "sess_1"), sessions, identity)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if len(sessions.deleted) != 1 || sessions.deleted[0] != "sess_1" {
		t.Fatalf("dead session must be removed, got %v", sessions.deleted)
	}
}

func TestSessionIDFromRequest_MalformedHeaders(t *testing.T) {
	e := echo.New()
	for _, header := range []string{"Token abc", "Bearer", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		c := e.NewContext(req, httptest.NewRecorder())

		if _, err := SessionIDFromRequest(c, testSecret); err == nil {
			t.Fatalf("header %q: expected error", header)
		}
	}
}
