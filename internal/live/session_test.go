package live_test

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/live"
)

// newLiveServer starts an httptest server that upgrades every request and
// registers the connection for userID, mirroring the /ws handler.
func newLiveServer(t *testing.T, r *live.Registry, userID int64) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		s := live.NewSession(userID, conn, 8, discardLogger())
		r.Register(userID, s)
		s.Run(live.HandleInbound)
		r.Release(userID, s)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSession_DeliversEventsAsJSON(t *testing.T) {
	r := live.NewRegistry(discardLogger())
	conn := dial(t, newLiveServer(t, r, 7))
	require.Eventually(t, func() bool { return r.Connected(7) }, 2*time.Second, 10*time.Millisecond)

	require.True(t, r.Send(7, domain.LifecycleChanged(3, domain.TripPlanning, domain.TripConfirmed)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "lifecycle-changed", got["type"])
	assert.EqualValues(t, 3, got["tripId"])
	assert.Equal(t, "planning", got["from"])
	assert.Equal(t, "confirmed", got["to"])
}

func TestSession_AnswersPing(t *testing.T) {
	r := live.NewRegistry(discardLogger())
	conn := dial(t, newLiveServer(t, r, 7))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "pong", got["type"])
}

func TestSession_DisconnectReleasesRegistration(t *testing.T) {
	r := live.NewRegistry(discardLogger())
	conn := dial(t, newLiveServer(t, r, 7))
	require.Eventually(t, func() bool { return r.Connected(7) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return !r.Connected(7) }, 2*time.Second, 10*time.Millisecond)
}

// brokenWriteListener hands out connections whose writes fail once broken
// is set, while reads keep working.
type brokenWriteListener struct {
	net.Listener
	broken *atomic.Bool
}

func (l brokenWriteListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return brokenWriteConn{Conn: c, broken: l.broken}, nil
}

type brokenWriteConn struct {
	net.Conn
	broken *atomic.Bool
}

func (c brokenWriteConn) Write(b []byte) (int, error) {
	if c.broken.Load() {
		return 0, errors.New("write: broken pipe")
	}
	return c.Conn.Write(b)
}

func TestSession_WriteFailureReleasesRegistration(t *testing.T) {
	r := live.NewRegistry(discardLogger())
	broken := new(atomic.Bool)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		s := live.NewSession(7, conn, 8, discardLogger())
		r.Register(7, s)
		s.Run(live.HandleInbound)
		r.Release(7, s)
	}))
	srv.Listener = brokenWriteListener{Listener: srv.Listener, broken: broken}
	srv.Start()
	t.Cleanup(srv.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.Eventually(t, func() bool { return r.Connected(7) }, 2*time.Second, 10*time.Millisecond)

	// The client keeps the read side busy, so only the failed write can end
	// the session.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if conn.WriteJSON(map[string]string{"type": "ping"}) != nil {
					return
				}
			}
		}
	}()

	broken.Store(true)
	r.Send(7, domain.LifecycleChanged(3, domain.TripPlanning, domain.TripConfirmed))

	assert.Eventually(t, func() bool { return !r.Connected(7) }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, r.Send(7, domain.LifecycleChanged(3, domain.TripConfirmed, domain.TripCancelled)))
}
