package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

func newTestClient(signURL, webcastURL string) *Client {
	return NewClient(Config{
		SignAPIKey:     "test-key",
		SignBaseURL:    signURL,
		WebcastBaseURL: webcastURL,
		HTTPTimeout:    5 * time.Second,
	}, zerolog.Nop())
}

func TestOpen_RejectsInvalidUsernames(t *testing.T) {
	c := newTestClient("http://unused", "http://unused")

	for _, username := range []string{"", "has space", "way@off", strings.Repeat("a", 61)} {
		_, err := c.Open(context.Background(), username)
		if !errors.Is(err, upstream.ErrUsernameInvalid) {
			t.Fatalf("username %q: expected ErrUsernameInvalid, got %v", username, err)
		}
	}
}

func TestOpen_OfflineRoomStatus(t *testing.T) {
	sign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"roomId":"7301","status":4}`)
	}))
	t.Cleanup(sign.Close)

	c := newTestClient(sign.URL, "http://unused")
	_, err := c.Open(context.Background(), "offline_host")
	if !errors.Is(err, upstream.ErrUserOffline) {
		t.Fatalf("expected ErrUserOffline for ended room, got %v", err)
	}
}

func TestOpen_UnknownUserIsOffline(t *testing.T) {
	sign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(sign.Close)

	c := newTestClient(sign.URL, "http://unused")
	_, err := c.Open(context.Background(), "nobody")
	if !errors.Is(err, upstream.ErrUserOffline) {
		t.Fatalf("expected ErrUserOffline for unknown user, got %v", err)
	}
}

func TestOpen_LiveRoomDialsSignedSocket(t *testing.T) {
	webcast := startWebcastServer(t, []string{
		`{"type":"WebcastChatMessage","data":{"comment":"live"}}`,
	})
	wsURL := "ws" + strings.TrimPrefix(webcast.URL, "http")

	sign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/webcast/room_info"):
			if r.URL.Query().Get("uniqueId") != "live_host" {
				t.Errorf("unexpected uniqueId %q", r.URL.Query().Get("uniqueId"))
			}
			if r.URL.Query().Get("apiKey") != "test-key" {
				t.Errorf("missing api key on room_info request")
			}
			fmt.Fprint(w, `{"roomId":"7302","status":2}`)
		case strings.HasPrefix(r.URL.Path, "/webcast/fetch"):
			if r.URL.Query().Get("roomId") != "7302" {
				t.Errorf("unexpected roomId %q", r.URL.Query().Get("roomId"))
			}
			fmt.Fprintf(w, `{"signedUrl":%q}`, wsURL)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(sign.Close)

	c := newTestClient(sign.URL, "http://unused")
	sess, err := c.Open(context.Background(), "live_host")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { sess.Close() })

	select {
	case ev := <-sess.Events():
		chat, ok := ev.(upstream.ChatEvent)
		if !ok || chat.Comment != "live" {
			t.Fatalf("unexpected first event %#v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first event")
	}
}

func TestFetchGifts_MapsCatalogEntries(t *testing.T) {
	webcast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/gift/list/") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"data":{"gifts":[
			{"id":5655,"name":"Rose","diamond_count":1,"image":{"url_list":["https://cdn/rose.webp"]}},
			{"id":5269,"name":"TikTok","diamond_count":1,"image":{"url_list":[]}}
		]}}`)
	}))
	t.Cleanup(webcast.Close)

	c := newTestClient("http://unused", webcast.URL)
	gifts, err := c.FetchGifts(context.Background())
	if err != nil {
		t.Fatalf("fetch gifts: %v", err)
	}
	if len(gifts) != 2 {
		t.Fatalf("expected 2 gifts, got %d", len(gifts))
	}
	if gifts[0].ID != 5655 || gifts[0].Name != "Rose" || gifts[0].DiamondCost != 1 {
		t.Fatalf("unexpected first gift %#v", gifts[0])
	}
	if gifts[0].ImageURL == nil || *gifts[0].ImageURL != "https://cdn/rose.webp" {
		t.Fatalf("unexpected gift image %v", gifts[0].ImageURL)
	}
	if gifts[1].ImageURL != nil {
		t.Fatalf("expected nil image for empty url list, got %v", *gifts[1].ImageURL)
	}
}

func TestFetchGifts_SurfacesHTTPErrors(t *testing.T) {
	webcast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(webcast.Close)

	c := newTestClient("http://unused", webcast.URL)
	if _, err := c.FetchGifts(context.Background()); err == nil {
		t.Fatal("expected an error for a non-2xx gift list response")
	}
}
