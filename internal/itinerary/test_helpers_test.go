package itinerary

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type staticIDGenerator struct {
	prefix string
	next   int
}

func (g *staticIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next), nil
}

type failingIDGenerator struct{}

func (failingIDGenerator) NewID() (string, error) {
	return "", errors.New("id generation unavailable")
}

func newTestPlanner(t *testing.T) (*Planner, *Day) {
	t.Helper()
	trip := &Trip{ID: TripID("trip-1"), Title: "Kansai loop", Days: []*Day{}}
	planner, err := NewPlanner(trip, PlannerConfig{
		Clock:      func() time.Time { return time.Unix(1750000000, 0).UTC() },
		IDProvider: &staticIDGenerator{prefix: "id"},
	})
	if err != nil {
		t.Fatalf("failed to construct planner: %v", err)
	}
	day, err := planner.AddDay("2026-04-10")
	if err != nil {
		t.Fatalf("failed to add day: %v", err)
	}
	return planner, day
}

func mustClockTime(t *testing.T, value string) ClockTime {
	t.Helper()
	clockTime, err := NewClockTime(value)
	if err != nil {
		t.Fatalf("unexpected clock time error: %v", err)
	}
	return clockTime
}

func mustAddBlock(t *testing.T, planner *Planner, dayID DayID, title string, kind BlockKind, timeOfDay string) *Block {
	t.Helper()
	draft := BlockDraft{Kind: kind, Title: title}
	if timeOfDay != "" {
		draft.Time = mustClockTime(t, timeOfDay)
	}
	block, err := planner.AddBlock(dayID, draft, -1)
	if err != nil {
		t.Fatalf("failed to add block %q: %v", title, err)
	}
	return block
}

func assertOrder(t *testing.T, day *Day, titles ...string) {
	t.Helper()
	if len(day.Blocks) != len(titles) {
		t.Fatalf("expected %d blocks, got %d", len(titles), len(day.Blocks))
	}
	for i, title := range titles {
		if day.Blocks[i].Title != title {
			t.Fatalf("position %d: expected %q, got %q", i, title, day.Blocks[i].Title)
		}
		if day.Blocks[i].Position != i {
			t.Fatalf("block %q carries position %d at slot %d", title, day.Blocks[i].Position, i)
		}
	}
}
