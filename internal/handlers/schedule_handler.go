package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/notify"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/repositories"
)

// ScheduleHandler exposes deferred notification requests
type ScheduleHandler struct {
	scheduler     *notify.Scheduler
	scheduledRepo repositories.ScheduledNotificationRepository
}

func NewScheduleHandler(scheduler *notify.Scheduler, scheduledRepo repositories.ScheduledNotificationRepository) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, scheduledRepo: scheduledRepo}
}

// RegisterScheduleRoutes registers scheduled notification routes
func (h *ScheduleHandler) RegisterScheduleRoutes(g *echo.Group) {
	g.POST("/scheduled-notifications", h.Schedule)
	g.GET("/scheduled-notifications", h.ListPending)
	g.DELETE("/scheduled-notifications/:id", h.Cancel)
}

// Schedule persists a deferred notification and arms its timer. Only admins
// may target a user other than themselves.
func (h *ScheduleHandler) Schedule(c echo.Context) error {
	claims := currentClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ScheduleNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	targetUser := req.UserID
	if targetUser == "" {
		targetUser = claims.UserID
	}
	if targetUser != claims.UserID && claims.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot schedule notifications for other users")
	}

	scheduled, err := h.scheduler.Schedule(c.Request().Context(), targetUser, req.Type, req.Title, req.Message, req.ScheduledTime)
	if err != nil {
		if errors.Is(err, notify.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, scheduled)
}

// ListPending returns the caller's pending scheduled notifications, earliest
// first
func (h *ScheduleHandler) ListPending(c echo.Context) error {
	claims := currentClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	pending, err := h.scheduler.ListPending(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"scheduledNotifications": pending})
}

// Cancel moves a pending record to CANCELLED. Terminal or missing records are
// NotFound either way, so callers cannot distinguish them.
func (h *ScheduleHandler) Cancel(c echo.Context) error {
	claims := currentClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid scheduled notification ID")
	}

	// Ownership gate: non-admins may only touch their own records. The lookup
	// races the timer, but the CANCELLED transition itself is atomic.
	if claims.Role != models.RoleAdmin {
		rec, err := h.scheduledRepo.GetByID(c.Request().Context(), uint(id))
		if err != nil {
			if errors.Is(err, repositories.ErrScheduledNotificationNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Scheduled notification not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if rec.UserID != claims.UserID {
			return echo.NewHTTPError(http.StatusNotFound, "Scheduled notification not found")
		}
	}

	if err := h.scheduler.Cancel(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repositories.ErrScheduledNotificationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Scheduled notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
