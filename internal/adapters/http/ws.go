package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

var wsUpgrader = websocket.Upgrader{
	// the status stream is read-only, any origin may watch it
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsStatus upgrades to WebSocket and pushes a status snapshot immediately and then every
// push interval until the client disconnects.
func (s *Server) wsStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				utils.Logger.Debug("websocket client disconnected", "err", err)
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(s.status.Status()); err != nil {
			utils.Logger.Debug("websocket write failed, stopping stream", "err", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
