package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventService "github.com/zhouzirui/recordhub/backend/internal/service/events"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *eventService.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestEventsStreamsFilteredChanges(t *testing.T) {
	hub := eventService.NewHub(zerolog.Nop())
	r := chi.NewRouter()
	New(hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, "?collection=notes")
	waitForSubscribers(t, hub, 1)

	hub.Publish(eventService.Event{Collection: "contacts", Action: eventService.Created, ID: "1"})
	hub.Publish(eventService.Event{Collection: "notes", Action: eventService.Deleted, ID: "abc"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "notes", got["collection"])
	assert.Equal(t, "deleted", got["action"])
	assert.Equal(t, "abc", got["id"])
	assert.NotContains(t, got, "record")
	assert.NotEmpty(t, got["at"])
}

func TestEventsUnsubscribesOnDisconnect(t *testing.T) {
	hub := eventService.NewHub(zerolog.Nop())
	r := chi.NewRouter()
	New(hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, hub, 0)
}

func TestEventsRejectsPlainHTTP(t *testing.T) {
	hub := eventService.NewHub(zerolog.Nop())
	r := chi.NewRouter()
	New(hub).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, hub.Subscribers())
}
