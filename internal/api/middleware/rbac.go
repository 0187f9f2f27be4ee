package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quanlytn/resource-portal/internal/api/metrics"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

// RequireRole gates a route group on a freshly checked role. The check runs
// on every request: roles are never cached in the session token. Any denial
// of a live session destroys it, so a revoked or re-mapped account cannot
// keep using an old login.
func RequireRole(auth ports.AuthService, requiredRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := Session(c)

			verdict := auth.Authorize(c.Request().Context(), sess, requiredRole)
			if verdict.Allowed {
				return next(c)
			}

			metrics.GuardDenialsTotal.WithLabelValues(verdict.Reason).Inc()

			if verdict.Reason == ports.DenyNoSession {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			// wrong_role and role_unavailable both sign the session out.
			auth.Logout(c.Request().Context(), sess.ID)
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
		}
	}
}
