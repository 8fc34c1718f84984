package normalize

import (
	"github.com/chesko21/tiktok-live-connector/internal/catalog"
	"github.com/chesko21/tiktok-live-connector/internal/domain"
	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

const unknownGiftName = "Unknown"

// giftTypeStreakable marks gifts that arrive as a rapid-repeat streak,
// finalized by the event carrying RepeatEnd.
const giftTypeStreakable = 1

// GiftLookup is the catalog capability gift aggregation needs.
type GiftLookup interface {
	Lookup(id int64) (catalog.Entry, bool)
}

// Gift decides whether a raw gift event is emitted and computes the
// diamond total. Intermediate events of a streakable gift are
// suppressed entirely; the terminal event carries the final repeat
// count, so the total is catalog cost (or event-embedded cost on a
// catalog miss) times that count. The predicate is evaluated per event
// and never buffers partial counts.
func Gift(streamer string, ev upstream.GiftEvent, gifts GiftLookup) (*domain.GiftEvent, bool) {
	if ev.GiftType == giftTypeStreakable && !ev.RepeatEnd {
		return nil, false
	}

	entry, found := gifts.Lookup(ev.GiftID)

	repeat := ev.RepeatCount
	if repeat <= 0 {
		repeat = 1
	}

	cost := 0
	if found && entry.DiamondCost > 0 {
		cost = entry.DiamondCost
	} else if ev.GiftDetails != nil {
		cost = ev.GiftDetails.DiamondCount
	}

	name := ""
	if found {
		name = entry.Name
	}
	if name == "" && ev.GiftDetails != nil {
		name = ev.GiftDetails.GiftName
	}
	if name == "" {
		name = unknownGiftName
	}

	var image *string
	if found && entry.ImageURL != nil {
		image = entry.ImageURL
	} else if ev.GiftDetails != nil {
		image = avatarURL(ev.GiftDetails.GiftImage)
	}

	return &domain.GiftEvent{
		Type:         domain.EventTypeGift,
		Username:     streamer,
		Actor:        actor(ev.User),
		GiftID:       ev.GiftID,
		GiftName:     name,
		RepeatCount:  ev.RepeatCount,
		DiamondCount: cost * repeat,
		GiftImage:    image,
	}, true
}
