package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
	"github.com/chesko21/tiktok-live-connector/pkg/response"
)

type fakeRelay struct {
	err      error
	requests []string
}

func (f *fakeRelay) EnsureConnected(ctx context.Context, username string) error {
	f.requests = append(f.requests, username)
	return f.err
}

func (f *fakeRelay) Shutdown() {}

func performConnect(relay *fakeRelay, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(relay).RegisterRoutes(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestConnect_Success(t *testing.T) {
	relay := &fakeRelay{}
	w := performConnect(relay, "/connect?username=host")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Status != "ok" || resp.Message != "Connected to host" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(relay.requests) != 1 || relay.requests[0] != "host" {
		t.Fatalf("unexpected relay calls %v", relay.requests)
	}
}

func TestConnect_MissingUsername(t *testing.T) {
	relay := &fakeRelay{}
	w := performConnect(relay, "/connect")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Status != "error" || resp.Message != "Username required" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(relay.requests) != 0 {
		t.Fatal("relay must not be called without a username")
	}
}

func TestConnect_OfflineStreamer(t *testing.T) {
	relay := &fakeRelay{err: fmt.Errorf("connecting to host: %w", upstream.ErrUserOffline)}
	w := performConnect(relay, "/connect?username=host")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Message != "User host is offline or not currently live." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestConnect_InvalidUsername(t *testing.T) {
	relay := &fakeRelay{err: fmt.Errorf("connecting to bad!name: %w", upstream.ErrUsernameInvalid)}
	w := performConnect(relay, "/connect?username=bad!name")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Message != "Invalid username bad!name" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestConnect_UpstreamFailure(t *testing.T) {
	relay := &fakeRelay{err: errors.New("signing service unreachable")}
	w := performConnect(relay, "/connect?username=host")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Status != "error" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
