package live

import (
	"encoding/json"
	"time"
)

// HandleInbound answers {"type":"ping"} frames with a pong and ignores
// everything else. Commands reach the engine over HTTP, not the live channel.
func HandleInbound(s *Session, payload []byte) {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	if msg.Type == "ping" {
		s.Reply(map[string]any{"type": "pong", "time": time.Now().Unix()})
	}
}
