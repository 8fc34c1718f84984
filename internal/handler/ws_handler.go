package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chesko21/tiktok-live-connector/internal/config"
	"github.com/chesko21/tiktok-live-connector/internal/hub"
	"github.com/chesko21/tiktok-live-connector/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades viewer connections and attaches them to the hub.
type WSHandler struct {
	hub   *hub.Hub
	wsCfg config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:   h,
		wsCfg: wsCfg,
	}
}

// HandleWebSocket upgrades the request and starts the client pumps.
// The event channel is server-to-client only; anything the viewer
// sends is drained and discarded.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
