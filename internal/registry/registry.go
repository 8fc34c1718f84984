// Package registry owns the per-streamer subscription state. It is the
// sole mutator of that state: the connect path reserves an entry before
// the upstream dial so two overlapping connect requests for the same
// streamer can never create duplicate subscriptions.
package registry

import (
	"sync"
	"time"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

// Subscription is one live upstream subscription handle.
type Subscription struct {
	StreamerID string
	Session    upstream.Session
	CreatedAt  time.Time
}

type entryState int

const (
	// statePending is a reservation held while the upstream connect is
	// in flight. It counts as "already connected" for idempotence but
	// is rolled back if the connect fails.
	statePending entryState = iota
	stateActive
)

type entry struct {
	state entryState
	sub   *Subscription
}

// Registry maps streamer ids to subscriptions. At most one entry per
// streamer exists at any time.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Begin reserves the streamer's slot. It returns true when an entry
// (pending or active) already exists, in which case the caller must not
// dial upstream.
func (r *Registry) Begin(streamerID string) (already bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[streamerID]; ok {
		return true
	}
	r.entries[streamerID] = &entry{state: statePending}
	return false
}

// Commit promotes a reservation to an active subscription.
func (r *Registry) Commit(streamerID string, session upstream.Session) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := &Subscription{
		StreamerID: streamerID,
		Session:    session,
		CreatedAt:  time.Now(),
	}
	r.entries[streamerID] = &entry{state: stateActive, sub: sub}
	return sub
}

// Abort rolls back a failed connect attempt so a later retry starts
// fresh.
func (r *Registry) Abort(streamerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[streamerID]; ok && e.state == statePending {
		delete(r.entries, streamerID)
	}
}

// Remove tears down the streamer's entry regardless of state. It
// returns the active subscription, if any, for the caller to close.
func (r *Registry) Remove(streamerID string) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[streamerID]
	if !ok {
		return nil
	}
	delete(r.entries, streamerID)
	return e.sub
}

// Get returns the active subscription for a streamer.
func (r *Registry) Get(streamerID string) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[streamerID]
	if !ok || e.state != stateActive {
		return nil, false
	}
	return e.sub, true
}

// Drain removes every entry and returns the active subscriptions for
// the caller to close. Used at process shutdown.
func (r *Registry) Drain() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := make([]*Subscription, 0, len(r.entries))
	for id, e := range r.entries {
		if e.sub != nil {
			subs = append(subs, e.sub)
		}
		delete(r.entries, id)
	}
	return subs
}

// Count returns the number of entries, pending included.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
