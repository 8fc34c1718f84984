package tiktok

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

// Webcast message types delivered over the signed socket.
const (
	msgChat        = "WebcastChatMessage"
	msgGift        = "WebcastGiftMessage"
	msgLike        = "WebcastLikeMessage"
	msgMember      = "WebcastMemberMessage"
	msgSocial      = "WebcastSocialMessage"
	msgRoomUserSeq = "WebcastRoomUserSeqMessage"
	msgControl     = "WebcastControlMessage"
)

// Control actions signalling end of the live session.
const (
	controlStreamPaused = 2
	controlStreamEnded  = 3
)

const (
	pingInterval = 10 * time.Second
	writeWait    = 5 * time.Second
)

// envelope is the frame shape the signing gateway delivers: the webcast
// message type plus its decoded JSON payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type session struct {
	conn      *websocket.Conn
	events    chan upstream.Event
	done      chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

func newSession(conn *websocket.Conn, logger zerolog.Logger) *session {
	return &session{
		conn:   conn,
		events: make(chan upstream.Event, 64),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *session) Events() <-chan upstream.Event { return s.events }

// Close tears the socket down. The events channel is closed by the
// read loop once it observes the dead connection.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *session) closedByUs() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// readLoop is the sole writer of the events channel, preserving the
// upstream delivery order end to end.
func (s *session) readLoop() {
	defer close(s.events)

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closedByUs() {
				// Upstream dropped the connection: the live session is over.
				s.logger.Info().Err(err).Msg("webcast socket closed by upstream")
				s.deliver(upstream.EndEvent{Reason: "connection closed"})
				s.Close()
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			s.logger.Warn().Err(err).Msg("unparseable webcast frame")
			continue
		}

		if ended := s.dispatch(env); ended {
			s.deliver(upstream.EndEvent{Reason: "stream ended"})
			s.Close()
			return
		}
	}
}

// dispatch maps one envelope onto the typed event union. It reports
// true when the message ends the session.
func (s *session) dispatch(env envelope) bool {
	switch env.Type {
	case msgChat:
		var ev upstream.ChatEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.handleDecodeError(env.Type, err)
			return false
		}
		s.deliver(ev)

	case msgGift:
		var ev upstream.GiftEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.handleDecodeError(env.Type, err)
			return false
		}
		s.deliver(ev)

	case msgLike:
		var ev upstream.LikeEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.handleDecodeError(env.Type, err)
			return false
		}
		s.deliver(ev)

	case msgMember:
		var ev upstream.MemberEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.handleDecodeError(env.Type, err)
			return false
		}
		s.deliver(ev)

	case msgSocial:
		s.dispatchSocial(env)

	case msgRoomUserSeq:
		var ev upstream.RoomUserEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.handleDecodeError(env.Type, err)
			return false
		}
		s.deliver(ev)

	case msgControl:
		var ctl struct {
			Action int `json:"action"`
		}
		if err := json.Unmarshal(env.Data, &ctl); err != nil {
			s.handleDecodeError(env.Type, err)
			return false
		}
		return ctl.Action == controlStreamEnded

	default:
		if upstream.DecodeFailureAction(env.Type) == upstream.DecodeActionIgnore {
			// Known-broken payloads carry nothing an overlay needs.
			s.logger.Debug().Str("message_type", env.Type).Msg("dropped tolerated message type")
			return false
		}
		s.deliver(upstream.RawEvent{MessageType: env.Type, Payload: env.Data})
	}
	return false
}

// dispatchSocial splits the shared social message into follow and share
// events based on its display type.
func (s *session) dispatchSocial(env envelope) {
	var social struct {
		DisplayType string         `json:"displayType"`
		User        *upstream.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &social); err != nil {
		s.handleDecodeError(env.Type, err)
		return
	}

	switch {
	case strings.Contains(social.DisplayType, "follow"):
		s.deliver(upstream.FollowEvent{User: social.User})
	case strings.Contains(social.DisplayType, "share"):
		s.deliver(upstream.ShareEvent{User: social.User})
	default:
		s.logger.Debug().Str("display_type", social.DisplayType).Msg("unrecognised social message")
	}
}

func (s *session) handleDecodeError(messageType string, err error) {
	switch upstream.DecodeFailureAction(messageType) {
	case upstream.DecodeActionIgnore:
		s.logger.Debug().Str("message_type", messageType).Msg("skipped decode error for tolerated message type")
	default:
		s.logger.Warn().Str("message_type", messageType).Err(err).Msg("failed to decode webcast message")
		s.deliver(upstream.ErrorEvent{MessageType: messageType, Err: err})
	}
}

func (s *session) deliver(ev upstream.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// pingLoop keeps the signed socket alive; the gateway drops idle
// connections.
func (s *session) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
