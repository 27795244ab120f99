package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shiftsync/backend/internal/hub"
)

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// non-browser clients send no origin
		return true
	}
	return h.originAllowed(origin)
}

// Subscribe upgrades the request to a websocket that receives every change
// committed after the upgrade. Clients fetch GET /shifts afterwards for the
// current state.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	// registered before the handshake completes, so nothing committed after
	// the client sees the upgrade response can be missed
	client := hub.NewClient(uuid.NewString(), actor.Username, h.config.Hub.SendBuffer)
	h.hub.Register(client)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.Unregister(client)
		slog.Warn("websocket upgrade failed", "username", actor.Username, "error", err)
		return
	}

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

// readPump only watches for pongs and for the peer going away.
func (h *Handler) readPump(conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	pongWait := time.Duration(h.config.Hub.PongWait) * time.Second
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "client", client.ID, "error", err)
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *hub.Client) {
	writeWait := time.Duration(h.config.Hub.WriteWait) * time.Second
	ticker := time.NewTicker(time.Duration(h.config.Hub.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		h.hub.Unregister(client)
		conn.Close()
	}()

	for {
		select {
		case message := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-client.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
