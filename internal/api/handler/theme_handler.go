package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	themeCookieName = "theme"
	themeCookieAge  = 365 * 24 * time.Hour

	themeLight = "light"
	themeDark  = "dark"
)

// ThemeHandler persists the light/dark preference under a single cookie key.
// It is independent of auth and of every other surface.
type ThemeHandler struct{}

func NewThemeHandler() *ThemeHandler {
	return &ThemeHandler{}
}

type themePayload struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// Get handles GET /v1/theme.
func (h *ThemeHandler) Get(c echo.Context) error {
	theme := themeLight
	if cookie, err := c.Cookie(themeCookieName); err == nil && cookie.Value == themeDark {
		theme = themeDark
	}
	return c.JSON(http.StatusOK, themePayload{Theme: theme})
}

// Put handles PUT /v1/theme.
func (h *ThemeHandler) Put(c echo.Context) error {
	var req themePayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.SetCookie(&http.Cookie{
		Name:     themeCookieName,
		Value:    req.Theme,
		Path:     "/",
		MaxAge:   int(themeCookieAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, req)
}
