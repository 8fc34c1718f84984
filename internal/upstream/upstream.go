package upstream

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel connect errors the relay classifies at the HTTP boundary.
var (
	// ErrUserOffline means the streamer exists but has no live session.
	ErrUserOffline = errors.New("user is offline or not currently live")
	// ErrUsernameInvalid means the identifier cannot refer to a streamer.
	ErrUsernameInvalid = errors.New("invalid username")
)

// Gift is one entry of the platform gift list.
type Gift struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DiamondCost int     `json:"diamondCost"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

// Connector is the live-platform collaborator. Implementations talk to
// the actual platform; tests substitute fakes.
type Connector interface {
	// FetchGifts retrieves the full platform gift list.
	FetchGifts(ctx context.Context) ([]Gift, error)
	// Open establishes a live subscription for the streamer. It returns
	// ErrUserOffline when the streamer is not live and ErrUsernameInvalid
	// for malformed identifiers.
	Open(ctx context.Context, username string) (Session, error)
}

// Session is one live upstream subscription. The events channel is
// closed when the upstream ends the session or Close is called; events
// arrive in upstream delivery order.
type Session interface {
	Events() <-chan Event
	Close() error
}

// Event is the tagged union of everything a session can deliver.
type Event interface {
	eventKind() string
}

// User identifies the acting viewer on an engagement event.
type User struct {
	UserID         string `json:"userId"`
	UniqueID       string `json:"uniqueId"`
	Nickname       string `json:"nickname"`
	ProfilePicture *Image `json:"profilePicture"`
}

// Image carries the avatar / gift picture URL in whichever of the three
// shapes the platform uses: a urlList array, a url array, or a bare url
// string. All shapes are retained for ordered fallback resolution.
type Image struct {
	URLList   []string
	URLValues []string
	URLString string
}

func (img *Image) UnmarshalJSON(data []byte) error {
	var aux struct {
		URLList []string        `json:"urlList"`
		URL     json.RawMessage `json:"url"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	img.URLList = aux.URLList
	img.URLValues = nil
	img.URLString = ""

	if len(aux.URL) == 0 {
		return nil
	}
	// url is either a list of URLs or a single string; tolerate both.
	if err := json.Unmarshal(aux.URL, &img.URLValues); err != nil {
		_ = json.Unmarshal(aux.URL, &img.URLString)
	}
	return nil
}

func (img Image) MarshalJSON() ([]byte, error) {
	aux := struct {
		URLList []string `json:"urlList,omitempty"`
		URL     []string `json:"url,omitempty"`
	}{URLList: img.URLList, URL: img.URLValues}
	if aux.URL == nil && img.URLString != "" {
		aux.URL = []string{img.URLString}
	}
	return json.Marshal(aux)
}

// GiftDetails is the event-embedded gift metadata, used as fallback
// when the catalog has no entry for the gift id.
type GiftDetails struct {
	GiftName     string `json:"giftName"`
	DiamondCount int    `json:"diamondCount"`
	GiftImage    *Image `json:"giftImage"`
}

type ChatEvent struct {
	Comment string `json:"comment"`
	User    *User  `json:"user"`
}

type GiftEvent struct {
	GiftID int64 `json:"giftId"`
	// GiftType 1 marks a streakable gift; RepeatEnd marks the terminal
	// event of the streak.
	GiftType    int          `json:"giftType"`
	RepeatCount int          `json:"repeatCount"`
	RepeatEnd   bool         `json:"repeatEnd"`
	GiftDetails *GiftDetails `json:"giftDetails"`
	User        *User        `json:"user"`
}

type LikeEvent struct {
	LikeCount      int   `json:"likeCount"`
	TotalLikeCount int   `json:"totalLikeCount"`
	User           *User `json:"user"`
}

type MemberEvent struct {
	ViewerCount   int   `json:"viewerCount"`
	RoomUserCount int   `json:"roomUserCount"`
	User          *User `json:"user"`
}

type FollowEvent struct {
	User *User `json:"user"`
}

type ShareEvent struct {
	User *User `json:"user"`
}

type RoomUserEvent struct {
	ViewerCount int `json:"viewerCount"`
}

// EndEvent reports upstream session end. The session events channel is
// closed after it is delivered.
type EndEvent struct {
	Reason string
}

// RawEvent is an upstream message the connector does not map to a typed
// variant. The relay logs and drops it.
type RawEvent struct {
	MessageType string
	Payload     json.RawMessage
}

// ErrorEvent is a non-fatal protocol or decode error recovered inside
// an active session.
type ErrorEvent struct {
	MessageType string
	Err         error
}

func (ChatEvent) eventKind() string     { return "chat" }
func (GiftEvent) eventKind() string     { return "gift" }
func (LikeEvent) eventKind() string     { return "like" }
func (MemberEvent) eventKind() string   { return "member" }
func (FollowEvent) eventKind() string   { return "follow" }
func (ShareEvent) eventKind() string    { return "share" }
func (RoomUserEvent) eventKind() string { return "roomUser" }
func (EndEvent) eventKind() string      { return "end" }
func (RawEvent) eventKind() string      { return "raw" }
func (ErrorEvent) eventKind() string    { return "error" }
