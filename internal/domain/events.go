package domain

import "fmt"

// Outbound event types. These are the wire contract between the relay
// and every connected overlay client (and any other subscriber of the
// event sink).
const (
	EventTypeChat   = "chat"
	EventTypeGift   = "gift"
	EventTypeLike   = "like"
	EventTypeJoin   = "join"
	EventTypeFollow = "follow"
	EventTypeShare  = "share"
	EventTypeViewer = "viewer"
	EventTypeEnd    = "end"
)

// OutboundEvent is the tagged union broadcast to viewer sockets, one
// variant per engagement kind. Every variant carries its own JSON
// shape; Kind returns the type tag for dispatch and logging.
type OutboundEvent interface {
	Kind() string
}

// Actor fields shared by viewer-initiated events. Nickname falls back
// to the unique id during normalization, so it is always populated.
// ProfilePictureURL encodes as null when the upstream supplied no
// usable avatar URL.
type Actor struct {
	Nickname          string  `json:"nickname"`
	UniqueID          string  `json:"uniqueId"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
}

type ChatEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Actor
	Comment string `json:"comment"`
}

type GiftEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Actor
	GiftID       int64   `json:"giftId"`
	GiftName     string  `json:"giftName"`
	RepeatCount  int     `json:"repeatCount,omitempty"`
	DiamondCount int     `json:"diamondCount"`
	GiftImage    *string `json:"giftImage"`
}

type LikeEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Actor
	LikeCount      int `json:"likeCount,omitempty"`
	TotalLikeCount int `json:"totalLikeCount,omitempty"`
}

type JoinEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Actor
	ViewerCount int `json:"viewerCount"`
}

type FollowEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Actor
}

type ShareEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Actor
}

type ViewerEvent struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	ViewerCount int    `json:"viewerCount"`
}

type EndEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (e *ChatEvent) Kind() string   { return e.Type }
func (e *GiftEvent) Kind() string   { return e.Type }
func (e *LikeEvent) Kind() string   { return e.Type }
func (e *JoinEvent) Kind() string   { return e.Type }
func (e *FollowEvent) Kind() string { return e.Type }
func (e *ShareEvent) Kind() string  { return e.Type }
func (e *ViewerEvent) Kind() string { return e.Type }
func (e *EndEvent) Kind() string    { return e.Type }

// NewEndEvent builds the session-end notification for a streamer.
func NewEndEvent(username string) *EndEvent {
	return &EndEvent{
		Type:     EventTypeEnd,
		Username: username,
		Message:  fmt.Sprintf("Live stream for %s has ended.", username),
	}
}
