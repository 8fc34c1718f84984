package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/domain"
	"github.com/chesko21/tiktok-live-connector/internal/normalize"
	"github.com/chesko21/tiktok-live-connector/internal/registry"
	"github.com/chesko21/tiktok-live-connector/internal/sink"
	"github.com/chesko21/tiktok-live-connector/internal/upstream"
	"github.com/chesko21/tiktok-live-connector/pkg/log"
)

// Publisher is the hub capability the relay needs.
type Publisher interface {
	Publish(event interface{}) error
}

type relayService struct {
	registry  *registry.Registry
	connector upstream.Connector
	gifts     normalize.GiftLookup
	hub       Publisher
	sink      sink.EventSink
	logger    zerolog.Logger
}

func NewRelayService(
	reg *registry.Registry,
	connector upstream.Connector,
	gifts normalize.GiftLookup,
	h Publisher,
	eventSink sink.EventSink,
	logger zerolog.Logger,
) RelayService {
	return &relayService{
		registry:  reg,
		connector: connector,
		gifts:     gifts,
		hub:       h,
		sink:      eventSink,
		logger:    logger,
	}
}

func (s *relayService) EnsureConnected(ctx context.Context, username string) error {
	if already := s.registry.Begin(username); already {
		s.logger.Debug().Str(log.FieldStreamer, username).Msg("subscription already active")
		return nil
	}

	session, err := s.connector.Open(ctx, username)
	if err != nil {
		// Roll the reservation back so a later retry starts fresh.
		s.registry.Abort(username)
		return fmt.Errorf("connecting to %s: %w", username, err)
	}

	sub := s.registry.Commit(username, session)
	s.logger.Info().Str(log.FieldStreamer, username).Msg("connected to live stream")

	go s.dispatchLoop(sub)
	return nil
}

func (s *relayService) Shutdown() {
	for _, sub := range s.registry.Drain() {
		sub.Session.Close()
	}
}

// dispatchLoop consumes one subscription's event stream in delivery
// order, normalizes each event, and publishes it. It exits when the
// upstream closes the stream.
func (s *relayService) dispatchLoop(sub *registry.Subscription) {
	streamer := sub.StreamerID
	logger := s.logger.With().Str(log.FieldStreamer, streamer).Logger()

	for ev := range sub.Session.Events() {
		switch e := ev.(type) {
		case upstream.ChatEvent:
			s.publish(streamer, normalize.Chat(streamer, e))

		case upstream.GiftEvent:
			if out, emit := normalize.Gift(streamer, e, s.gifts); emit {
				s.publish(streamer, out)
			}

		case upstream.LikeEvent:
			s.publish(streamer, normalize.Like(streamer, e))

		case upstream.MemberEvent:
			s.publish(streamer, normalize.Member(streamer, e))

		case upstream.FollowEvent:
			s.publish(streamer, normalize.Follow(streamer, e))

		case upstream.ShareEvent:
			s.publish(streamer, normalize.Share(streamer, e))

		case upstream.RoomUserEvent:
			s.publish(streamer, normalize.RoomUser(streamer, e))

		case upstream.EndEvent:
			logger.Info().Str("reason", e.Reason).Msg("live stream ended")
			s.publish(streamer, normalize.End(streamer))
			s.teardown(streamer)

		case upstream.RawEvent:
			logger.Debug().Str("message_type", e.MessageType).Msg("ignored unsupported upstream message")

		case upstream.ErrorEvent:
			logger.Warn().Str("message_type", e.MessageType).Err(e.Err).Msg("recovered upstream error")

		default:
			logger.Warn().Str(log.FieldEventType, fmt.Sprintf("%T", ev)).Msg("unhandled upstream event variant")
		}
	}
}

// teardown removes the registry entry and closes the upstream handle
// once the upstream reports end of session.
func (s *relayService) teardown(streamer string) {
	if sub := s.registry.Remove(streamer); sub != nil {
		sub.Session.Close()
	}
}

func (s *relayService) publish(streamer string, event domain.OutboundEvent) {
	if err := s.hub.Publish(event); err != nil {
		s.logger.Error().Err(err).Str(log.FieldStreamer, streamer).Str(log.FieldEventType, event.Kind()).Msg("failed to broadcast event")
	}

	// Sink failures degrade the secondary feed only; the websocket
	// broadcast above has already happened.
	if err := s.sink.Publish(context.Background(), streamer, event); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldStreamer, streamer).Msg("failed to publish event to sink")
	}
}
