package ws

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
)

type fakeConn struct {
	mu       sync.Mutex
	events   []Event
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestHub_SendToUserReachesAllSessions(t *testing.T) {
	hub := newTestHub()
	c1 := &fakeConn{}
	c2 := &fakeConn{}

	hub.Register("s1", "user-1", models.RolePatient, c1)
	hub.Register("s2", "user-1", models.RolePatient, c2)

	payload := Event{Type: EventNotification, Data: "hello"}
	delivered := hub.SendToUser("user-1", payload)

	require.True(t, delivered)
	assert.Len(t, c1.received(), 1)
	assert.Len(t, c2.received(), 1)

	hub.Remove("s1")
	delivered = hub.SendToUser("user-1", payload)

	require.True(t, delivered)
	assert.Len(t, c1.received(), 1, "removed session must not receive")
	assert.Len(t, c2.received(), 2)
}

func TestHub_SendToOfflineUser(t *testing.T) {
	hub := newTestHub()
	assert.False(t, hub.SendToUser("nobody", Event{Type: EventNotification}))
}

func TestHub_RegisterIdempotentPerSession(t *testing.T) {
	hub := newTestHub()
	c := &fakeConn{}

	hub.Register("s1", "user-1", models.RolePatient, c)
	hub.Register("s1", "user-1", models.RolePatient, &fakeConn{})

	assert.Equal(t, 1, hub.SessionCount())
	hub.SendToUser("user-1", Event{Type: EventNotification})
	assert.Len(t, c.received(), 1, "first registration wins")
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := newTestHub()
	c := &fakeConn{}
	hub.Register("s1", "user-1", models.RolePatient, c)

	hub.Unsubscribe("user-1", "s1")
	assert.False(t, hub.SendToUser("user-1", Event{Type: EventNotification}))
	assert.Empty(t, c.received())

	// The raw session stays registered and still receives broadcasts.
	assert.Equal(t, 1, hub.SessionCount())
	hub.Broadcast(Event{Type: EventNotification})
	assert.Len(t, c.received(), 1)

	hub.Subscribe("user-1", "s1")
	assert.True(t, hub.SendToUser("user-1", Event{Type: EventNotification}))
	assert.Len(t, c.received(), 2)
}

func TestHub_SubscribeForeignUserIgnored(t *testing.T) {
	hub := newTestHub()
	c := &fakeConn{}
	hub.Register("s1", "user-1", models.RolePatient, c)

	// A session may only join the channel of the user it authenticated as.
	hub.Subscribe("user-2", "s1")
	assert.False(t, hub.SendToUser("user-2", Event{Type: EventNotification}))
}

func TestHub_RemoveUnknownSessionIsNoOp(t *testing.T) {
	hub := newTestHub()
	assert.NotPanics(t, func() { hub.Remove("never-registered") })
}

func TestHub_BroadcastRoleFilter(t *testing.T) {
	hub := newTestHub()
	doctor := &fakeConn{}
	patient := &fakeConn{}
	admin := &fakeConn{}

	hub.Register("s1", "doc-1", models.RoleDoctor, doctor)
	hub.Register("s2", "pat-1", models.RolePatient, patient)
	hub.Register("s3", "adm-1", models.RoleAdmin, admin)

	hub.Broadcast(Event{Type: EventNotification, Data: "doctors only"}, models.RoleDoctor)

	assert.Len(t, doctor.received(), 1)
	assert.Empty(t, patient.received())
	assert.Empty(t, admin.received())

	hub.Broadcast(Event{Type: EventNotification, Data: "everyone"})

	assert.Len(t, doctor.received(), 2)
	assert.Len(t, patient.received(), 1)
	assert.Len(t, admin.received(), 1)
}

func TestHub_WriteFailureDoesNotBlockOthers(t *testing.T) {
	hub := newTestHub()
	broken := &fakeConn{writeErr: assert.AnError}
	healthy := &fakeConn{}

	hub.Register("s1", "user-1", models.RolePatient, broken)
	hub.Register("s2", "user-1", models.RolePatient, healthy)

	delivered := hub.SendToUser("user-1", Event{Type: EventNotification})

	assert.True(t, delivered, "one healthy session is enough")
	assert.Len(t, healthy.received(), 1)
}

func TestHub_PushWrapsNotification(t *testing.T) {
	hub := newTestHub()
	c := &fakeConn{}
	hub.Register("s1", "user-1", models.RolePatient, c)

	n := &models.Notification{UserID: "user-1", Type: models.NotificationTypeSystem, Title: "t", Message: "m"}
	require.NoError(t, hub.Push(context.Background(), n))

	events := c.received()
	require.Len(t, events, 1)
	assert.Equal(t, EventNotification, events[0].Type)
	assert.Same(t, n, events[0].Data)
}

func TestHub_PushOfflineUserIsNotAnError(t *testing.T) {
	hub := newTestHub()
	n := &models.Notification{UserID: "offline", Type: models.NotificationTypeSystem, Title: "t", Message: "m"}
	assert.NoError(t, hub.Push(context.Background(), n))
}
