// Package normalize maps raw upstream engagement events onto the
// stable outbound wire schema. Every function here is a pure
// transformation; side effects such as session teardown live in the
// relay service.
package normalize

import (
	"github.com/chesko21/tiktok-live-connector/internal/domain"
	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

// Chat maps an upstream chat message.
func Chat(streamer string, ev upstream.ChatEvent) *domain.ChatEvent {
	return &domain.ChatEvent{
		Type:     domain.EventTypeChat,
		Username: streamer,
		Actor:    actor(ev.User),
		Comment:  ev.Comment,
	}
}

// Like maps an upstream like burst.
func Like(streamer string, ev upstream.LikeEvent) *domain.LikeEvent {
	return &domain.LikeEvent{
		Type:           domain.EventTypeLike,
		Username:       streamer,
		Actor:          actor(ev.User),
		LikeCount:      ev.LikeCount,
		TotalLikeCount: ev.TotalLikeCount,
	}
}

// Member maps an upstream room join. The viewer count prefers the
// dedicated field and falls back to the room user count.
func Member(streamer string, ev upstream.MemberEvent) *domain.JoinEvent {
	count := ev.ViewerCount
	if count == 0 {
		count = ev.RoomUserCount
	}
	return &domain.JoinEvent{
		Type:        domain.EventTypeJoin,
		Username:    streamer,
		Actor:       actor(ev.User),
		ViewerCount: count,
	}
}

// Follow maps an upstream follow.
func Follow(streamer string, ev upstream.FollowEvent) *domain.FollowEvent {
	return &domain.FollowEvent{
		Type:     domain.EventTypeFollow,
		Username: streamer,
		Actor:    actor(ev.User),
	}
}

// Share maps an upstream share.
func Share(streamer string, ev upstream.ShareEvent) *domain.ShareEvent {
	return &domain.ShareEvent{
		Type:     domain.EventTypeShare,
		Username: streamer,
		Actor:    actor(ev.User),
	}
}

// RoomUser maps an upstream viewer-count update.
func RoomUser(streamer string, ev upstream.RoomUserEvent) *domain.ViewerEvent {
	return &domain.ViewerEvent{
		Type:        domain.EventTypeViewer,
		Username:    streamer,
		ViewerCount: ev.ViewerCount,
	}
}

// End produces the session-end notification.
func End(streamer string) *domain.EndEvent {
	return domain.NewEndEvent(streamer)
}

func actor(u *upstream.User) domain.Actor {
	if u == nil {
		return domain.Actor{}
	}
	return domain.Actor{
		Nickname:          displayName(u),
		UniqueID:          u.UniqueID,
		ProfilePictureURL: avatarURL(u.ProfilePicture),
	}
}

// displayName prefers the nickname and falls back to the unique id.
func displayName(u *upstream.User) string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.UniqueID
}

// avatarURL resolves the avatar through the ordered fallback chain:
// urlList first element, url-list first element, raw url string.
// Absent resolves to nil, never an error.
func avatarURL(img *upstream.Image) *string {
	if img == nil {
		return nil
	}
	if len(img.URLList) > 0 {
		return &img.URLList[0]
	}
	if len(img.URLValues) > 0 {
		return &img.URLValues[0]
	}
	if img.URLString != "" {
		return &img.URLString
	}
	return nil
}
