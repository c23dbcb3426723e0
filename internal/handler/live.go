package handler

import (
	"net/http"

	"github.com/desaismitha/Shered-sub002/internal/live"
)

// ServeLive handles GET /ws. It upgrades the connection and registers the
// caller's session for pushed trip events until the client disconnects.
// A reconnect supersedes the previous session of the same user.
func (s *Server) ServeLive(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.WarnContext(r.Context(), "websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	sess := live.NewSession(userID, conn, s.queueSize, s.log)
	s.svc.Sessions.Register(userID, sess)
	sess.Run(live.HandleInbound)
	s.svc.Sessions.Release(userID, sess)
}
