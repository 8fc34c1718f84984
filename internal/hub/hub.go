// Package hub fans normalized events out to every connected overlay
// socket. There is no per-viewer filtering by streamer: every open
// socket receives every event, and overlay pages ignore streamers they
// did not ask for.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/chesko21/tiktok-live-connector/internal/config"
	"github.com/chesko21/tiktok-live-connector/pkg/log"
)

type Hub struct {
	clients    map[string]*Client // clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("viewer registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("viewer unregistered")

		case payload := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- payload:
				default:
					// Sockets that cannot accept the payload are dropped
					// rather than failing the publish for everyone else.
					go h.removeClient(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish serializes the event exactly once and sends the identical
// bytes to every currently-open socket.
func (h *Hub) Publish(event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.broadcast <- payload
	return nil
}

// ClientCount returns the number of connected viewer sockets.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
