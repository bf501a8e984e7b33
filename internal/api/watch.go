package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// The watch feed is read-only operator tooling on the same host; no
	// origin restriction needed beyond what the deployment puts in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWatch upgrades to a websocket and pushes the session snapshot once a
// second until the client disconnects or the kill switch fires.
func (s *Server) handleWatch(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade watch connection: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Send one snapshot immediately so the client does not wait a tick.
	if err := conn.WriteJSON(s.sessions.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteJSON(s.sessions.Snapshot()); err != nil {
				// Broken pipe or client gone; normal termination.
				return
			}
		case <-s.ks.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}
