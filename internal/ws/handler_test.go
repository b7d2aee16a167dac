package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
)

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func newWSServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	handler := NewHandler(hub, zerolog.Nop())
	e := echo.New()
	handler.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	socket, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { socket.Close() })
	return socket
}

func signTestToken(t *testing.T, secret, userID string, role models.Role) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func readEvent(t *testing.T, socket *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, socket.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event wireEvent
	require.NoError(t, socket.ReadJSON(&event))
	return event
}

func TestServe_AuthenticateAndReceive(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-test-secret")
	hub, srv := newWSServer(t)
	socket := dialWS(t, srv)

	token := signTestToken(t, "ws-test-secret", "user-1", models.RolePatient)
	require.NoError(t, socket.WriteJSON(map[string]string{"type": "authenticate", "token": token}))

	assert.Equal(t, EventAuthenticated, readEvent(t, socket).Type)
	assert.Equal(t, 1, hub.SessionCount())

	delivered := hub.SendToUser("user-1", Event{
		Type: EventNotification,
		Data: &models.Notification{UserID: "user-1", Type: models.NotificationTypeMessage, Title: "t", Message: "m"},
	})
	require.True(t, delivered)

	event := readEvent(t, socket)
	assert.Equal(t, EventNotification, event.Type)

	var n models.Notification
	require.NoError(t, json.Unmarshal(event.Data, &n))
	assert.Equal(t, "user-1", n.UserID)
	assert.Equal(t, models.NotificationTypeMessage, n.Type)
}

func TestServe_InvalidTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-test-secret")
	hub, srv := newWSServer(t)
	socket := dialWS(t, srv)

	require.NoError(t, socket.WriteJSON(map[string]string{"type": "authenticate", "token": "garbage"}))

	assert.Equal(t, EventError, readEvent(t, socket).Type)
	assert.Equal(t, 0, hub.SessionCount())
}

func TestServe_SubscribeRequiresAuthentication(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-test-secret")
	_, srv := newWSServer(t)
	socket := dialWS(t, srv)

	require.NoError(t, socket.WriteJSON(map[string]string{"type": "subscribe"}))
	assert.Equal(t, EventError, readEvent(t, socket).Type)
}

func TestServe_UnsubscribeStopsDelivery(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-test-secret")
	hub, srv := newWSServer(t)
	socket := dialWS(t, srv)

	token := signTestToken(t, "ws-test-secret", "user-1", models.RolePatient)
	require.NoError(t, socket.WriteJSON(map[string]string{"type": "authenticate", "token": token}))
	require.Equal(t, EventAuthenticated, readEvent(t, socket).Type)

	require.NoError(t, socket.WriteJSON(map[string]string{"type": "unsubscribe"}))
	require.Equal(t, EventUnsubscribed, readEvent(t, socket).Type)

	assert.False(t, hub.SendToUser("user-1", Event{Type: EventNotification}))

	require.NoError(t, socket.WriteJSON(map[string]string{"type": "subscribe"}))
	require.Equal(t, EventSubscribed, readEvent(t, socket).Type)

	assert.True(t, hub.SendToUser("user-1", Event{Type: EventNotification}))
}

func TestServe_DisconnectRemovesSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-test-secret")
	hub, srv := newWSServer(t)
	socket := dialWS(t, srv)

	token := signTestToken(t, "ws-test-secret", "user-1", models.RolePatient)
	require.NoError(t, socket.WriteJSON(map[string]string{"type": "authenticate", "token": token}))
	require.Equal(t, EventAuthenticated, readEvent(t, socket).Type)
	require.Equal(t, 1, hub.SessionCount())

	require.NoError(t, socket.Close())

	assert.Eventually(t, func() bool {
		return hub.SessionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
