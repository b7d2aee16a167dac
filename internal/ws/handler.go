package ws

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/middleware"
)

// lockedConn serializes writes to one socket. Gorilla connections support a
// single concurrent writer, and both the read loop and hub deliveries write.
type lockedConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (l *lockedConn) WriteJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.WriteJSON(v)
}

func (l *lockedConn) Close() error { return l.c.Close() }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is an inbound frame from a connected client.
type clientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

const (
	msgAuthenticate = "authenticate"
	msgSubscribe    = "subscribe"
	msgUnsubscribe  = "unsubscribe"
)

// Handler upgrades HTTP requests to WebSocket sessions and feeds the hub.
type Handler struct {
	hub *Hub
	log zerolog.Logger
}

func NewHandler(hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, log: log}
}

// RegisterRoutes registers the WebSocket endpoint. The route is outside the
// JWT middleware group: authentication happens over the socket itself so that
// browser clients without header control can connect.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve runs the read loop for one connection. The first accepted frame must
// be an authenticate message; subscribe/unsubscribe adjust channel membership
// afterwards. Disconnect always clears the session from the hub.
func (h *Handler) Serve(c echo.Context) error {
	socket, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to upgrade connection to WebSocket")
	}
	lc := &lockedConn{c: socket}
	defer lc.Close()

	sessionID := uuid.NewString()
	authenticated := false
	var userID string

	defer func() {
		if authenticated {
			h.hub.Remove(sessionID)
		}
	}()

	for {
		var msg clientMessage
		if err := socket.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("session", sessionID).Msg("ws connection closed")
			}
			return nil
		}

		switch msg.Type {
		case msgAuthenticate:
			claims, err := middleware.ParseToken(msg.Token)
			if err != nil {
				h.writeEvent(lc, Event{Type: EventError, Data: "invalid token"})
				continue
			}
			if !authenticated {
				h.hub.Register(sessionID, claims.UserID, claims.Role, lc)
				authenticated = true
				userID = claims.UserID
			}
			h.writeEvent(lc, Event{Type: EventAuthenticated})

		case msgSubscribe:
			if !authenticated {
				h.writeEvent(lc, Event{Type: EventError, Data: "not authenticated"})
				continue
			}
			h.hub.Subscribe(userID, sessionID)
			h.writeEvent(lc, Event{Type: EventSubscribed})

		case msgUnsubscribe:
			if !authenticated {
				h.writeEvent(lc, Event{Type: EventError, Data: "not authenticated"})
				continue
			}
			h.hub.Unsubscribe(userID, sessionID)
			h.writeEvent(lc, Event{Type: EventUnsubscribed})

		default:
			h.writeEvent(lc, Event{Type: EventError, Data: "unknown message type"})
		}
	}
}

func (h *Handler) writeEvent(c *lockedConn, event Event) {
	if err := c.WriteJSON(event); err != nil {
		h.log.Warn().Err(err).Msg("ws write failed")
	}
}
