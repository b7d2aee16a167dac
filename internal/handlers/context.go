package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/middleware"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
)

// currentClaims returns the authenticated caller's claims, or nil when the
// request passed no auth middleware.
func currentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get(middleware.ContextKeyUser).(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}
