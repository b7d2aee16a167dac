package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/notify"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/ws"
)

// BroadcastHandler exposes the privileged fan-out endpoint
type BroadcastHandler struct {
	dispatcher *notify.Dispatcher
	hub        *ws.Hub
}

func NewBroadcastHandler(dispatcher *notify.Dispatcher, hub *ws.Hub) *BroadcastHandler {
	return &BroadcastHandler{dispatcher: dispatcher, hub: hub}
}

// RegisterBroadcastRoutes registers broadcast routes on an admin-only group
func (h *BroadcastHandler) RegisterBroadcastRoutes(g *echo.Group) {
	g.POST("/notifications/broadcast", h.Broadcast)
}

// Broadcast delivers to an explicit user list (persisted per user) or, when
// no list is given, pushes a live-only announcement to every connected
// session, optionally filtered by role.
func (h *BroadcastHandler) Broadcast(c echo.Context) error {
	var req models.BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Type == "" {
		req.Type = models.NotificationTypeSystem
	}
	if !req.Type.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification type")
	}

	if len(req.UserIDs) > 0 {
		notifications := h.dispatcher.NotifyBulk(c.Request().Context(), req.UserIDs, req.Type, req.Title, req.Message, req.Data)
		return c.JSON(http.StatusOK, echo.Map{
			"notifications": notifications,
			"delivered":     len(notifications),
			"requested":     len(req.UserIDs),
		})
	}

	h.hub.Broadcast(ws.Event{
		Type: ws.EventNotification,
		Data: &models.Notification{
			Type:      req.Type,
			Title:     req.Title,
			Message:   req.Message,
			Data:      req.Data,
			CreatedAt: time.Now().UTC(),
		},
	}, req.Roles...)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
