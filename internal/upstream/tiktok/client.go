// Package tiktok implements the upstream.Connector against the TikTok
// webcast platform. Room lookup and websocket URL signing go through
// the external signing service; the signed socket delivers webcast
// messages as JSON envelopes, already decoded by the signing gateway.
package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

const (
	// aid is the application id the webcast API expects.
	aid = "1988"

	roomStatusLive = 2
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._]{1,60}$`)

// Config holds connector endpoints and credentials.
type Config struct {
	// SignAPIKey authenticates against the signing service.
	SignAPIKey string
	// SignBaseURL is the signing service base URL.
	SignBaseURL string
	// WebcastBaseURL is the public webcast API base URL.
	WebcastBaseURL string
	// HTTPTimeout bounds every HTTP call.
	HTTPTimeout time.Duration
}

// Client talks to the webcast platform. It implements upstream.Connector.
type Client struct {
	cfg    Config
	http   *http.Client
	dialer *websocket.Dialer
	logger zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{HandshakeTimeout: timeout},
		logger: logger,
	}
}

// FetchGifts retrieves the platform gift list.
func (c *Client) FetchGifts(ctx context.Context) ([]upstream.Gift, error) {
	endpoint := fmt.Sprintf("%s/gift/list/?aid=%s&app_language=en-US", c.cfg.WebcastBaseURL, aid)

	var resp giftListResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetching gift list: %w", err)
	}

	gifts := make([]upstream.Gift, 0, len(resp.Data.Gifts))
	for _, g := range resp.Data.Gifts {
		gift := upstream.Gift{
			ID:          g.ID,
			Name:        g.Name,
			DiamondCost: g.DiamondCount,
		}
		if len(g.Image.URLList) > 0 {
			u := g.Image.URLList[0]
			gift.ImageURL = &u
		}
		gifts = append(gifts, gift)
	}
	return gifts, nil
}

// Open resolves the streamer's live room and dials the signed event
// socket. The returned session delivers events in upstream order until
// the stream ends or Close is called.
func (c *Client) Open(ctx context.Context, username string) (upstream.Session, error) {
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("username %q: %w", username, upstream.ErrUsernameInvalid)
	}

	room, err := c.roomInfo(ctx, username)
	if err != nil {
		return nil, err
	}
	if room.Status != roomStatusLive {
		return nil, fmt.Errorf("room %s has status %d: %w", room.RoomID, room.Status, upstream.ErrUserOffline)
	}

	signedURL, err := c.signWebsocketURL(ctx, room.RoomID)
	if err != nil {
		return nil, fmt.Errorf("signing websocket url: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, signedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing webcast socket: %w", err)
	}

	sess := newSession(conn, c.logger.With().Str("streamer", username).Logger())
	go sess.readLoop()
	go sess.pingLoop()
	return sess, nil
}

func (c *Client) roomInfo(ctx context.Context, username string) (*roomInfoResponse, error) {
	endpoint := fmt.Sprintf("%s/webcast/room_info?uniqueId=%s&apiKey=%s",
		c.cfg.SignBaseURL, url.QueryEscape(username), url.QueryEscape(c.cfg.SignAPIKey))

	var resp roomInfoResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		var httpErr *httpStatusError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("user %s not found: %w", username, upstream.ErrUserOffline)
		}
		return nil, fmt.Errorf("resolving room for %s: %w", username, err)
	}
	return &resp, nil
}

func (c *Client) signWebsocketURL(ctx context.Context, roomID string) (string, error) {
	endpoint := fmt.Sprintf("%s/webcast/fetch?roomId=%s&client=ttlive-go&apiKey=%s",
		c.cfg.SignBaseURL, url.QueryEscape(roomID), url.QueryEscape(c.cfg.SignAPIKey))

	var resp signResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	if resp.SignedURL == "" {
		return "", errors.New("signing service returned no websocket url")
	}
	return resp.SignedURL, nil
}

// httpStatusError reports a non-2xx HTTP response.
type httpStatusError struct {
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.Status, e.Body)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return json.Unmarshal(body, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Wire shapes of the HTTP endpoints.

type giftListResponse struct {
	Data struct {
		Gifts []struct {
			ID           int64  `json:"id"`
			Name         string `json:"name"`
			DiamondCount int    `json:"diamond_count"`
			Image        struct {
				URLList []string `json:"url_list"`
			} `json:"image"`
		} `json:"gifts"`
	} `json:"data"`
}

type roomInfoResponse struct {
	RoomID string `json:"roomId"`
	Status int    `json:"status"`
}

type signResponse struct {
	SignedURL string `json:"signedUrl"`
}
