package ws

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
)

// Event types sent over WebSocket
const (
	EventNotification  = "notification"
	EventAuthenticated = "authenticated"
	EventSubscribed    = "subscribed"
	EventUnsubscribed  = "unsubscribed"
	EventError         = "error"
)

// Event is the JSON message sent to connected clients
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Conn is the subset of *websocket.Conn the hub needs. Tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// session is one live transport connection of one authenticated device.
// Conn implementations must tolerate concurrent WriteJSON calls.
type session struct {
	id     string
	userID string
	role   models.Role
	conn   Conn
}

func (s *session) send(event Event) error {
	return s.conn.WriteJSON(event)
}

// Hub is the authoritative, process-local registry of live connections.
// It is a best-effort delivery optimization only: the durable record of a
// notification lives in the store, and an offline user simply misses the push.
// The hub is constructed once at startup and injected wherever delivery is
// needed; it is not a package-level singleton.
type Hub struct {
	log zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*session            // session id -> session
	channels map[string]map[string]*session // user id -> session id -> subscribed session
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string]*session),
		channels: make(map[string]map[string]*session),
	}
}

// Register records an authenticated connection and joins it to the user's
// delivery channel. Idempotent per session id.
func (h *Hub) Register(sessionID, userID string, role models.Role, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sessionID]; ok {
		return
	}
	s := &session{id: sessionID, userID: userID, role: role, conn: c}
	h.sessions[sessionID] = s
	h.subscribeLocked(userID, s)
	h.log.Debug().Str("session", sessionID).Str("user", userID).Str("role", string(role)).
		Int("sessions", len(h.sessions)).Msg("ws session registered")
}

// Subscribe joins a session to a user's delivery channel. A session may opt
// back in after an Unsubscribe without reconnecting.
func (h *Hub) Subscribe(userID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok || s.userID != userID {
		return
	}
	h.subscribeLocked(userID, s)
}

func (h *Hub) subscribeLocked(userID string, s *session) {
	if h.channels[userID] == nil {
		h.channels[userID] = make(map[string]*session)
	}
	h.channels[userID][s.id] = s
}

// Unsubscribe leaves the user's delivery channel while keeping the raw
// connection alive (the client may still receive broadcasts).
func (h *Hub) Unsubscribe(userID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.channels[userID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.channels, userID)
		}
	}
}

// Remove drops every registry entry referencing the session. Safe to call for
// sessions that were never registered.
func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)
	if members, ok := h.channels[s.userID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.channels, s.userID)
		}
	}
	h.log.Debug().Str("session", sessionID).Str("user", s.userID).
		Int("sessions", len(h.sessions)).Msg("ws session removed")
}

// SendToUser pushes the event to every subscribed session of the user and
// reports whether at least one session received it. No retry, no queuing.
func (h *Hub) SendToUser(userID string, event Event) bool {
	h.mu.RLock()
	members := make([]*session, 0, len(h.channels[userID]))
	for _, s := range h.channels[userID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	delivered := false
	for _, s := range members {
		if err := s.send(event); err != nil {
			h.log.Warn().Err(err).Str("session", s.id).Str("user", userID).Msg("ws write failed")
			continue
		}
		delivered = true
	}
	return delivered
}

// Broadcast pushes the event to every live session, optionally filtered by
// role. An empty role list means everyone.
func (h *Hub) Broadcast(event Event, roles ...models.Role) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if len(roles) > 0 && !roleMatch(s.role, roles) {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.send(event); err != nil {
			h.log.Warn().Err(err).Str("session", s.id).Msg("ws broadcast write failed")
		}
	}
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Push delivers a notification to the owner's live sessions. It satisfies the
// dispatcher's pusher contract; an offline user is not an error.
func (h *Hub) Push(ctx context.Context, notification *models.Notification) error {
	h.SendToUser(notification.UserID, Event{Type: EventNotification, Data: notification})
	return nil
}

func roleMatch(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
