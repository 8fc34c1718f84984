package hub

import (
	"bytes"
	"testing"
	"time"

	"github.com/chesko21/tiktok-live-connector/internal/config"
	"github.com/chesko21/tiktok-live-connector/internal/domain"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   10 * time.Second,
		PongWait:       15 * time.Second,
		WriteWait:      5 * time.Second,
		MaxMessageSize: 512,
	}
}

// testClient builds a hub client with no underlying socket; the tests
// read broadcast payloads straight off the Send channel.
func testClient(id string, h *Hub, buffer int) *Client {
	return &Client{
		ID:     id,
		Hub:    h,
		Send:   make(chan []byte, buffer),
		config: testWSConfig(),
	}
}

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d, have %d", want, h.ClientCount())
}

func receivePayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s never received a payload", c.ID)
		return nil
	}
}

func TestPublish_AllClientsReceiveIdenticalPayload(t *testing.T) {
	h := NewHub(testWSConfig())
	go h.Run()

	clients := []*Client{
		testClient("a", h, 8),
		testClient("b", h, 8),
		testClient("c", h, 8),
	}
	for _, c := range clients {
		h.Register(c)
	}
	waitForClientCount(t, h, 3)

	event := &domain.ChatEvent{
		Type:     domain.EventTypeChat,
		Username: "host",
		Actor:    domain.Actor{Nickname: "Viewer", UniqueID: "viewer1"},
		Comment:  "hello",
	}
	if err := h.Publish(event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	first := receivePayload(t, clients[0])
	for _, c := range clients[1:] {
		if got := receivePayload(t, c); !bytes.Equal(got, first) {
			t.Fatalf("client %s received %s, want %s", c.ID, got, first)
		}
	}
}

func TestPublish_SlowClientDroppedOthersUnaffected(t *testing.T) {
	h := NewHub(testWSConfig())
	go h.Run()

	healthy := testClient("healthy", h, 8)
	// Zero buffer and no reader: the broadcast cannot hand this client
	// the payload and must drop it instead of blocking.
	stuck := testClient("stuck", h, 0)
	h.Register(healthy)
	h.Register(stuck)
	waitForClientCount(t, h, 2)

	if err := h.Publish(domain.NewEndEvent("host")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	payload := receivePayload(t, healthy)
	if len(payload) == 0 {
		t.Fatal("healthy client received empty payload")
	}
	waitForClientCount(t, h, 1)
	if h.ClientCount() != 1 {
		t.Fatalf("expected stuck client removed, have %d clients", h.ClientCount())
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(testWSConfig())
	go h.Run()

	c := testClient("a", h, 8)
	h.Register(c)
	waitForClientCount(t, h, 1)

	h.Unregister(c)
	waitForClientCount(t, h, 0)

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected closed send channel, got a payload")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed on unregister")
	}
}
