package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

type stubIdentity struct {
	signInFn func(ctx context.Context, email, password string) (*ports.IdentityTokens, error)
}

func (s *stubIdentity) SignIn(ctx context.Context, email, password string) (*ports.IdentityTokens, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubIdentity) Refresh(_ context.Context, _ string) (*ports.IdentityTokens, error) {
	return nil, errors.New("not implemented")
}

type stubRoleRepo struct {
	role string
	err  error
}

func (r *stubRoleRepo) GetUserRole(_ context.Context, _, _ string) (string, error) {
	return r.role, r.err
}

type stubProfileRepo struct {
	err  error
	last *domain.Profile
}

func (r *stubProfileRepo) Upsert(_ context.Context, _ string, profile *domain.Profile) error {
	if r.err != nil {
		return r.err
	}
	r.last = profile
	return nil
}

type stubSessionStore struct {
	saveErr  error
	sessions map[string]*domain.Session
	deleted  []string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *sess
	s.sessions[sess.ID] = &clone
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

func okIdentity(t *testing.T, wantEmail string) *stubIdentity {
	return &stubIdentity{
		signInFn: func(_ context.Context, email, password string) (*ports.IdentityTokens, error) {
			if email != wantEmail {
				t.Fatalf("unexpected sign-in email %q", email)
			}
			return &ports.IdentityTokens{
				UID:          "uid_1",
				Email:        email,
				IDToken:      "idtoken_1",
				RefreshToken: "refresh_1",
				ExpiresAt:    time.Now().Add(time.Hour),
			}, nil
		},
	}
}

func newTestAuthService(identity ports.IdentityProvider, roles *stubRoleRepo, profiles *stubProfileRepo, sessions *stubSessionStore) *AuthService {
	return NewAuthService(identity, roles, profiles, sessions, "test-secret", "users.test", time.Hour, zerolog.Nop())
}

func TestLogin_BareUsernameGetsSyntheticEmail(t *testing.T) {
	sessions := newStubSessionStore()
	svc := newTestAuthService(okIdentity(t, "alice@users.test"), &stubRoleRepo{role: "admin"}, &stubProfileRepo{}, sessions)

	result, err := svc.Login(context.Background(), ports.LoginInput{Username: "  alice ", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Role != "admin" || result.Username != "alice" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("expected a stored session")
	}

	// The returned token must carry the stored session id.
	parsed, err := jwt.Parse(result.Token, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("invalid session token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if _, ok := sessions.sessions[claims["sid"].(string)]; !ok {
		t.Fatalf("token sid does not match a stored session")
	}
}

func TestLogin_EmailUsernamePassesThrough(t *testing.T) {
	svc := newTestAuthService(okIdentity(t, "bob@corp.example"), &stubRoleRepo{}, &stubProfileRepo{}, newStubSessionStore())

	result, err := svc.Login(context.Background(), ports.LoginInput{Username: "bob@corp.example", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Username != "bob" {
		t.Fatalf("expected local part as username, got %q", result.Username)
	}
}

func TestLogin_RejectedCredentialsAreGeneric(t *testing.T) {
	identity := &stubIdentity{
		signInFn: func(_ context.Context, _, _ string) (*ports.IdentityTokens, error) {
			return nil, errors.New("EMAIL_NOT_FOUND")
		},
	}
	svc := newTestAuthService(identity, &stubRoleRepo{}, &stubProfileRepo{}, newStubSessionStore())

	_, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "wrong"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_EmptyInputRejectedWithoutSignIn(t *testing.T) {
	identity := &stubIdentity{
		signInFn: func(_ context.Context, _, _ string) (*ports.IdentityTokens, error) {
			t.Fatalf("sign-in must not be attempted")
			return nil, nil
		},
	}
	svc := newTestAuthService(identity, &stubRoleRepo{}, &stubProfileRepo{}, newStubSessionStore())

	if _, err := svc.Login(context.Background(), ports.LoginInput{Username: "", Password: "x"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_ProfileUpsertFailureDoesNotBlock(t *testing.T) {
	svc := newTestAuthService(okIdentity(t, "alice@users.test"), &stubRoleRepo{role: "download"},
		&stubProfileRepo{err: errors.New("rules rejected write")}, newStubSessionStore())

	result, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("profile failures must not block login: %v", err)
	}
	if result.Role != "download" {
		t.Fatalf("unexpected role %q", result.Role)
	}
}

func TestLogin_RoleLookupFailureStillLogsIn(t *testing.T) {
	svc := newTestAuthService(okIdentity(t, "alice@users.test"),
		&stubRoleRepo{err: errors.New("permission denied")}, &stubProfileRepo{}, newStubSessionStore())

	result, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Role != "" {
		t.Fatalf("routing hint must be empty when the lookup fails, got %q", result.Role)
	}
}

func TestLogin_SessionSaveFailureIsFatal(t *testing.T) {
	sessions := newStubSessionStore()
	sessions.saveErr = errors.New("redis down")
	svc := newTestAuthService(okIdentity(t, "alice@users.test"), &stubRoleRepo{}, &stubProfileRepo{}, sessions)

	if _, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "secret"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	sessions := newStubSessionStore()
	sessions.sessions["sess_1"] = &domain.Session{ID: "sess_1"}
	svc := newTestAuthService(&stubIdentity{}, &stubRoleRepo{}, &stubProfileRepo{}, sessions)

	svc.Logout(context.Background(), "sess_1")
	if len(sessions.deleted) != 1 || sessions.deleted[0] != "sess_1" {
		t.Fatalf("expected session delete, got %v", sessions.deleted)
	}

	// Unknown and empty ids are silently ignored.
	svc.Logout(context.Background(), "sess_unknown")
	svc.Logout(context.Background(), "")
}

func TestAuthorize_Verdicts(t *testing.T) {
	sess := &domain.Session{ID: "sess_1", UID: "uid_1", IDToken: "idtoken_1"}

	cases := []struct {
		name     string
		sess     *domain.Session
		roles    *stubRoleRepo
		required string
		allowed  bool
		reason   string
	}{
		{"no session", nil, &stubRoleRepo{}, domain.RoleAdmin, false, ports.DenyNoSession},
		{"role matches", sess, &stubRoleRepo{role: "admin"}, domain.RoleAdmin, true, ""},
		{"wrong role", sess, &stubRoleRepo{role: "download"}, domain.RoleAdmin, false, ports.DenyWrongRole},
		{"no role assigned", sess, &stubRoleRepo{role: ""}, domain.RoleDownload, false, ports.DenyWrongRole},
		{"lookup error denies", sess, &stubRoleRepo{err: errors.New("backend down")}, domain.RoleAdmin, false, ports.DenyRoleUnavailable},
		{"no required role", sess, &stubRoleRepo{err: errors.New("backend down")}, "", true, ""},
	}
	for _, tc := range cases {
		svc := newTestAuthService(&stubIdentity{}, tc.roles, &stubProfileRepo{}, newStubSessionStore())
		verdict := svc.Authorize(context.Background(), tc.sess, tc.required)
		if verdict.Allowed != tc.allowed || verdict.Reason != tc.reason {
			t.Fatalf("%s: got %+v", tc.name, verdict)
		}
	}
}
