package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

// AuthService implements login, logout, and the role guard against the
// hosted identity service and the userRoles/userProfiles mappings.
type AuthService struct {
	identity   ports.IdentityProvider
	roles      ports.RoleRepository
	profiles   ports.ProfileRepository
	sessions   ports.SessionStore
	jwtSecret  string
	sessionTTL time.Duration
	// emailDomain turns a bare username into a synthetic sign-in email.
	emailDomain string
	log         zerolog.Logger
}

func NewAuthService(
	identity ports.IdentityProvider,
	roles ports.RoleRepository,
	profiles ports.ProfileRepository,
	sessions ports.SessionStore,
	jwtSecret, emailDomain string,
	sessionTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		identity:    identity,
		roles:       roles,
		profiles:    profiles,
		sessions:    sessions,
		jwtSecret:   jwtSecret,
		emailDomain: emailDomain,
		sessionTTL:  sessionTTL,
		log:         log,
	}
}

func (s *AuthService) Login(ctx context.Context, input ports.LoginInput) (*ports.LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	email := s.loginEmail(username)
	tokens, err := s.identity.SignIn(ctx, email, input.Password)
	if err != nil {
		// One generic answer for every sign-in failure.
		s.log.Warn().Str("email", email).Msg("sign-in rejected")
		return nil, domain.ErrInvalidCredentials
	}

	sess := &domain.Session{
		ID:           uuid.NewString(),
		UID:          tokens.UID,
		Username:     usernameFromEmail(tokens.Email),
		Email:        tokens.Email,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}

	// Profile sync is best-effort bookkeeping; it never blocks a login.
	profile := &domain.Profile{
		UID:         sess.UID,
		Username:    sess.Username,
		Email:       sess.Email,
		LastLoginAt: time.Now().UTC(),
	}
	if err := s.profiles.Upsert(ctx, sess.IDToken, profile); err != nil {
		s.log.Warn().Err(err).Str("uid", sess.UID).Msg("profile upsert failed")
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Error().Err(err).Msg("failed to save session")
		return nil, err
	}

	token, err := s.signSessionToken(sess)
	if err != nil {
		return nil, err
	}

	// Routing hint only: protected surfaces re-check the role per request.
	role, err := s.roles.GetUserRole(ctx, sess.IDToken, sess.UID)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", sess.UID).Msg("role lookup failed at login")
		role = ""
	}

	s.log.Info().Str("uid", sess.UID).Str("username", sess.Username).Msg("login succeeded")
	return &ports.LoginResult{
		Token:    token,
		Role:     role,
		UID:      sess.UID,
		Username: sess.Username,
		Email:    sess.Email,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Msg("session delete failed on logout")
	}
}

func (s *AuthService) Authorize(ctx context.Context, sess *domain.Session, requiredRole string) ports.Verdict {
	if sess == nil {
		return ports.Verdict{Reason: ports.DenyNoSession}
	}
	if requiredRole == "" {
		return ports.Verdict{Allowed: true}
	}

	role, err := s.roles.GetUserRole(ctx, sess.IDToken, sess.UID)
	if err != nil {
		// The mapping being unreadable denies access outright.
		s.log.Warn().Err(err).Str("uid", sess.UID).Msg("role lookup failed, denying")
		return ports.Verdict{Reason: ports.DenyRoleUnavailable}
	}
	if role != requiredRole {
		return ports.Verdict{Role: role, Reason: ports.DenyWrongRole}
	}
	return ports.Verdict{Allowed: true, Role: role}
}

func (s *AuthService) signSessionToken(sess *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": sess.ID,
		"uid": sess.UID,
		"exp": time.Now().Add(s.sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// loginEmail maps a bare username onto the configured synthetic domain.
// Inputs that already look like an email pass through untouched.
func (s *AuthService) loginEmail(username string) string {
	if strings.Contains(username, "@") {
		return username
	}
	domainSuffix := s.emailDomain
	if domainSuffix == "" {
		domainSuffix = "users.local"
	}
	return username + "@" + domainSuffix
}

func usernameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
