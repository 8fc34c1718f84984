package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

type fakeConnector struct {
	gifts []upstream.Gift
	err   error
}

func (c *fakeConnector) FetchGifts(ctx context.Context) ([]upstream.Gift, error) {
	return c.gifts, c.err
}

func (c *fakeConnector) Open(ctx context.Context, username string) (upstream.Session, error) {
	return nil, errors.New("not implemented")
}

type fakeSnapshot struct {
	saved    []Entry
	restored []Entry
	err      error
}

func (s *fakeSnapshot) Save(ctx context.Context, entries []Entry) error {
	s.saved = entries
	return nil
}

func (s *fakeSnapshot) Restore(ctx context.Context) ([]Entry, error) {
	return s.restored, s.err
}

func (s *fakeSnapshot) Close() error { return nil }

func strPtr(s string) *string { return &s }

func TestLoad_PopulatesFromUpstream(t *testing.T) {
	conn := &fakeConnector{gifts: []upstream.Gift{
		{ID: 5655, Name: "Rose", DiamondCost: 1, ImageURL: strPtr("https://cdn/rose.webp")},
		{ID: 6064, Name: "Galaxy", DiamondCost: 1000},
	}}
	c := New(conn, nil, zerolog.Nop())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Size() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Size())
	}

	entry, ok := c.Lookup(6064)
	if !ok {
		t.Fatal("expected an entry for gift 6064")
	}
	if entry.Name != "Galaxy" || entry.DiamondCost != 1000 || entry.ImageURL != nil {
		t.Fatalf("unexpected entry %#v", entry)
	}

	if _, ok := c.Lookup(9999); ok {
		t.Fatal("lookup of an unknown id must miss")
	}
}

func TestLoad_SavesSnapshotOnSuccess(t *testing.T) {
	conn := &fakeConnector{gifts: []upstream.Gift{{ID: 5655, Name: "Rose", DiamondCost: 1}}}
	snap := &fakeSnapshot{}
	c := New(conn, snap, zerolog.Nop())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.saved) != 1 || snap.saved[0].ID != 5655 {
		t.Fatalf("expected the catalog snapshotted, got %#v", snap.saved)
	}
}

func TestLoad_FallsBackToSnapshot(t *testing.T) {
	conn := &fakeConnector{err: errors.New("upstream unreachable")}
	snap := &fakeSnapshot{restored: []Entry{{ID: 5655, Name: "Rose", DiamondCost: 1}}}
	c := New(conn, snap, zerolog.Nop())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("expected snapshot fallback to succeed, got %v", err)
	}
	entry, ok := c.Lookup(5655)
	if !ok || entry.Name != "Rose" {
		t.Fatalf("expected the restored entry, got %#v ok=%v", entry, ok)
	}
}

func TestLoad_FailureWithoutSnapshotLeavesCatalogEmpty(t *testing.T) {
	conn := &fakeConnector{err: errors.New("upstream unreachable")}
	c := New(conn, nil, zerolog.Nop())

	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected the upstream error surfaced")
	}
	if c.Size() != 0 {
		t.Fatalf("expected an empty catalog, got %d entries", c.Size())
	}
	if _, ok := c.Lookup(5655); ok {
		t.Fatal("empty catalog must miss every lookup")
	}
}

func TestLoad_EmptySnapshotSurfacesUpstreamError(t *testing.T) {
	upstreamErr := errors.New("upstream unreachable")
	conn := &fakeConnector{err: upstreamErr}
	snap := &fakeSnapshot{err: ErrNoSnapshot}
	c := New(conn, snap, zerolog.Nop())

	err := c.Load(context.Background())
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("expected the upstream error, got %v", err)
	}
}
