package sink

import (
	"context"

	"github.com/chesko21/tiktok-live-connector/internal/domain"
)

// EventSink receives every published OutboundEvent in addition to the
// websocket fan-out, so non-browser subscribers (bots, analytics) can
// consume the same wire schema.
type EventSink interface {
	Publish(ctx context.Context, streamerID string, event domain.OutboundEvent) error
	Close() error
}

// Nop is the sink used when no broker is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, streamerID string, event domain.OutboundEvent) error {
	return nil
}

func (Nop) Close() error { return nil }

var _ EventSink = Nop{}
