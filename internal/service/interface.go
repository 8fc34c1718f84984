package service

import "context"

// RelayService orchestrates upstream subscriptions and event fan-out.
type RelayService interface {
	// EnsureConnected guarantees a live upstream subscription for the
	// streamer, creating one if needed. It is idempotent: a second call
	// while a subscription is active succeeds without reconnecting.
	EnsureConnected(ctx context.Context, username string) error
	// Shutdown closes every active subscription.
	Shutdown()
}
