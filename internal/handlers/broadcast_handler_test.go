package handlers

import (
	"net/http"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/notify"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/ws"
)

type recordingConn struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recordingConn) WriteJSON(v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v.(ws.Event))
	return nil
}

func (r *recordingConn) Close() error { return nil }

func (r *recordingConn) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func adminClaims() *models.JwtCustomClaims {
	return &models.JwtCustomClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func newBroadcastFixture() (*echo.Echo, *BroadcastHandler, *memNotificationRepo, *ws.Hub) {
	e := newTestEcho()
	repo := &memNotificationRepo{}
	hub := ws.NewHub(zerolog.Nop())
	dispatcher := notify.NewDispatcher(repo, zerolog.Nop(), hub)
	return e, NewBroadcastHandler(dispatcher, hub), repo, hub
}

func TestBroadcast_ExplicitUserListPersistsEach(t *testing.T) {
	e, h, repo, hub := newBroadcastFixture()

	online := &recordingConn{}
	hub.Register("s1", "user-1", models.RolePatient, online)

	body := `{"userIds":["user-1","user-2"],"title":"Maintenance","message":"Service window tonight"}`
	c, rec := jsonContext(e, http.MethodPost, "/api/v1/notifications/broadcast", body, adminClaims())
	require.NoError(t, h.Broadcast(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		Delivered     int                   `json:"delivered"`
		Requested     int                   `json:"requested"`
	}
	require.NoError(t, jsonDecode(rec, &resp))
	assert.Equal(t, 2, resp.Delivered)
	assert.Equal(t, 2, resp.Requested)
	for _, n := range resp.Notifications {
		assert.Equal(t, models.NotificationTypeSystem, n.Type, "type defaults to SYSTEM")
	}

	// Both targets persisted; only the online one got a live push.
	assert.Len(t, repo.notifications, 2)
	assert.Equal(t, 1, online.count())
}

func TestBroadcast_ToAllIsLiveOnly(t *testing.T) {
	e, h, repo, hub := newBroadcastFixture()

	doctor := &recordingConn{}
	patient := &recordingConn{}
	hub.Register("s1", "doc-1", models.RoleDoctor, doctor)
	hub.Register("s2", "pat-1", models.RolePatient, patient)

	body := `{"title":"Announcement","message":"New article published","roles":["DOCTOR"]}`
	c, rec := jsonContext(e, http.MethodPost, "/api/v1/notifications/broadcast", body, adminClaims())
	require.NoError(t, h.Broadcast(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, repo.notifications, "broadcast to all is not persisted per user")
	assert.Equal(t, 1, doctor.count())
	assert.Equal(t, 0, patient.count())
}

func TestBroadcast_RejectsMissingTitle(t *testing.T) {
	e, h, _, _ := newBroadcastFixture()

	c, _ := jsonContext(e, http.MethodPost, "/api/v1/notifications/broadcast", `{"message":"m"}`, adminClaims())
	err := h.Broadcast(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestBroadcast_RejectsUnknownType(t *testing.T) {
	e, h, _, _ := newBroadcastFixture()

	c, _ := jsonContext(e, http.MethodPost, "/api/v1/notifications/broadcast", `{"title":"t","message":"m","type":"SHOUTING"}`, adminClaims())
	err := h.Broadcast(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
