package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// Session is a websocket-backed Handle. Events are buffered in an Outbox and
// written by a dedicated goroutine so a slow client never blocks the sender.
type Session struct {
	ID     uuid.UUID
	UserID int64

	conn    *websocket.Conn
	outbox  *Outbox
	replies chan []byte
	done    chan struct{}
	once    sync.Once
	log     *slog.Logger
}

// NewSession wraps an upgraded connection. queueSize bounds the outbox.
func NewSession(userID int64, conn *websocket.Conn, queueSize int, log *slog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:      id,
		UserID:  userID,
		conn:    conn,
		outbox:  NewOutbox(queueSize),
		replies: make(chan []byte, 4),
		done:    make(chan struct{}),
		log:     log.With("session_id", id.String(), "user_id", userID),
	}
}

// Enqueue buffers ev for delivery. It never blocks.
func (s *Session) Enqueue(ev domain.Event) {
	if dropped := s.outbox.Push(ev); dropped != nil {
		metrics.EventsDropped.WithLabelValues(string(dropped.Type)).Inc()
		s.log.Debug("outbox full, dropped event", "type", dropped.Type, "trip_id", dropped.TripID)
	}
}

// Close stops both pumps and closes the connection. It is idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.outbox.Close()
		_ = s.conn.Close()
	})
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Reply queues a JSON frame such as a pong. Replies bypass the outbox and
// are dropped when the small reply buffer is full.
func (s *Session) Reply(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.replies <- b:
	default:
	}
}

// Run starts the write pump and blocks reading from the connection until the
// client goes away or the session is closed. onMessage is called for every
// inbound text frame.
func (s *Session) Run(onMessage func(s *Session, payload []byte)) {
	go s.writePump()
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("live session read error", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if onMessage != nil {
			onMessage(s, payload)
		}
	}
}

// writePump is the only goroutine that writes data frames to the connection.
// A write error closes the session, which ends the read loop in Run so the
// transport releases the registration.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-s.done:
			return
		case <-s.outbox.Ready():
			for _, ev := range s.outbox.Drain() {
				_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := s.conn.WriteJSON(ev); err != nil {
					s.log.Debug("live session write failed", "error", err)
					return
				}
			}
		case b := <-s.replies:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.log.Debug("live session write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug("live session ping failed", "error", err)
				return
			}
		}
	}
}
