package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quanlytn/resource-portal/internal/core/domain"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

const sessionContextKey = "session"

// Session extracts the session the Auth middleware resolved for this
// request, or nil when the request never passed through it.
func Session(c echo.Context) *domain.Session {
	sess, _ := c.Get(sessionContextKey).(*domain.Session)
	return sess
}

// Auth validates the portal session JWT, loads the session from the store,
// and transparently refreshes the backend id token when it has expired.
// This is the request-time answer to "is anyone signed in right now".
func Auth(jwtSecret string, sessions ports.SessionStore, identity ports.IdentityProvider, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, err := SessionIDFromRequest(c, jwtSecret)
			if err != nil {
				return err
			}

			sess, err := sessions.Get(c.Request().Context(), sid)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			// The hosted id tokens expire hourly; renew before the backend
			// starts rejecting them.
			if time.Until(sess.ExpiresAt) < time.Minute {
				tokens, err := identity.Refresh(c.Request().Context(), sess.RefreshToken)
				if err != nil {
					log.Warn().Err(err).Str("uid", sess.UID).Msg("token refresh failed")
					_ = sessions.Delete(c.Request().Context(), sess.ID)
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
				}
				sess.IDToken = tokens.IDToken
				if tokens.RefreshToken != "" {
					sess.RefreshToken = tokens.RefreshToken
				}
				sess.ExpiresAt = tokens.ExpiresAt
				if err := sessions.Save(c.Request().Context(), sess); err != nil {
					log.Warn().Err(err).Str("uid", sess.UID).Msg("failed to persist refreshed session")
				}
			}

			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

// SessionIDFromRequest parses the bearer session token and returns the
// session id claim. Logout uses it directly so a stale token still clears
// whatever session it names.
func SessionIDFromRequest(c echo.Context, jwtSecret string) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return sid, nil
}
