package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/handler"
	"github.com/desaismitha/Shered-sub002/internal/live"
	"github.com/desaismitha/Shered-sub002/internal/middleware"
)

func dialLive(t *testing.T, registry *live.Registry, userID int64) *websocket.Conn {
	t.Helper()
	h := newHTTPHandler(handler.Services{Sessions: registry})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tok, err := middleware.IssueToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return registry.Connected(userID) }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestServeLive_DeliversEvents(t *testing.T) {
	registry := live.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := dialLive(t, registry, callerID)

	require.True(t, registry.Send(callerID, domain.LifecycleChanged(42, domain.TripPlanning, domain.TripConfirmed)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, domain.EventLifecycleChanged, ev.Type)
	assert.Equal(t, int64(42), ev.TripID)
	assert.Equal(t, domain.TripConfirmed, ev.To)
}

func TestServeLive_PingPong(t *testing.T) {
	registry := live.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := dialLive(t, registry, callerID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg["type"])
}

func TestServeLive_DisconnectReleases(t *testing.T) {
	registry := live.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := dialLive(t, registry, callerID)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return !registry.Connected(callerID) }, 2*time.Second, 10*time.Millisecond)
}

func TestServeLive_RejectsForeignOrigin(t *testing.T) {
	registry := live.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewServer(handler.Services{Sessions: registry}, log, 8, []string{"https://app.example.com"}).
		Routes(middleware.Authenticate(testSecret))
	srv := httptest.NewServer(h)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	header.Set("Authorization", bearer(t, callerID))
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, registry.Count())
}
