package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quanlytn/resource-portal/internal/api/metrics"
	appmw "github.com/quanlytn/resource-portal/internal/api/middleware"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	jwtSecret   string
}

func NewAuthHandler(authService ports.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{authService: authService, jwtSecret: jwtSecret}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role,omitempty"`
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login authenticates a username (or email) and password against the hosted
// identity service and answers with a portal session token. The role field
// is a routing hint for the client; protected surfaces re-check it.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:    result.Token,
		Role:     result.Role,
		UID:      result.UID,
		Username: result.Username,
		Email:    result.Email,
	})
}

// Logout destroys the caller's session. It answers 204 no matter what: an
// expired or mangled token leaves nothing to clear, and a failed sign-out
// still sends the caller back to the entry page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid, err := appmw.SessionIDFromRequest(c, h.jwtSecret); err == nil {
		h.authService.Logout(c.Request().Context(), sid)
	}
	return c.NoContent(http.StatusNoContent)
}
