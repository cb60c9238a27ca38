package itinerary

import (
	"errors"
	"testing"
	"time"
)

func TestAddBlockAppendsAndInserts(t *testing.T) {
	planner, day := newTestPlanner(t)

	mustAddBlock(t, planner, day.ID, "Fushimi Inari", BlockKindActivity, "09:00")
	mustAddBlock(t, planner, day.ID, "Nishiki Market", BlockKindActivity, "12:30")
	assertOrder(t, day, "Fushimi Inari", "Nishiki Market")

	inserted, err := planner.AddBlock(day.ID, BlockDraft{Kind: BlockKindNote, Title: "Buy ICOCA card"}, 1)
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if inserted.Position != 1 {
		t.Fatalf("expected inserted block at position 1, got %d", inserted.Position)
	}
	assertOrder(t, day, "Fushimi Inari", "Buy ICOCA card", "Nishiki Market")
}

func TestAddBlockRejectsOutOfRangeIndex(t *testing.T) {
	planner, day := newTestPlanner(t)
	mustAddBlock(t, planner, day.ID, "Fushimi Inari", BlockKindActivity, "")

	_, err := planner.AddBlock(day.ID, BlockDraft{Kind: BlockKindNote, Title: "late"}, 2)
	if !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}

	// Index equal to the current length appends.
	if _, err := planner.AddBlock(day.ID, BlockDraft{Kind: BlockKindNote, Title: "at end"}, 1); err != nil {
		t.Fatalf("append at length must succeed: %v", err)
	}
	assertOrder(t, day, "Fushimi Inari", "at end")
}

func TestAddBlockUnknownDay(t *testing.T) {
	planner, _ := newTestPlanner(t)
	_, err := planner.AddBlock(DayID("missing"), BlockDraft{Kind: BlockKindNote}, -1)
	if !errors.Is(err, ErrDayNotFound) {
		t.Fatalf("expected ErrDayNotFound, got %v", err)
	}
}

func TestUpdateBlockMergesFieldsWithoutReordering(t *testing.T) {
	planner, day := newTestPlanner(t)
	first := mustAddBlock(t, planner, day.ID, "Fushimi Inari", BlockKindActivity, "09:00")
	mustAddBlock(t, planner, day.ID, "Nishiki Market", BlockKindActivity, "12:30")

	newTitle := "Fushimi Inari Taisha"
	newTime := mustClockTime(t, "08:30")
	updated, err := planner.UpdateBlock(day.ID, first.ID, BlockPatch{Title: &newTitle, Time: &newTime})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.Title != newTitle {
		t.Fatalf("title not merged: %q", updated.Title)
	}
	if updated.Time.String() != "08:30" {
		t.Fatalf("time not merged: %q", updated.Time.String())
	}
	if updated.Description != "" {
		t.Fatalf("untouched field mutated: %q", updated.Description)
	}
	assertOrder(t, day, "Fushimi Inari Taisha", "Nishiki Market")
}

func TestUpdateBlockNotFound(t *testing.T) {
	planner, day := newTestPlanner(t)
	_, err := planner.UpdateBlock(day.ID, BlockID("missing"), BlockPatch{})
	if !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestRemoveBlockCompactsOrderAndIsNotIdempotent(t *testing.T) {
	planner, day := newTestPlanner(t)
	mustAddBlock(t, planner, day.ID, "A", BlockKindActivity, "")
	middle := mustAddBlock(t, planner, day.ID, "B", BlockKindActivity, "")
	mustAddBlock(t, planner, day.ID, "C", BlockKindActivity, "")

	if err := planner.RemoveBlock(day.ID, middle.ID); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	assertOrder(t, day, "A", "C")

	err := planner.RemoveBlock(day.ID, middle.ID)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("second remove must report ErrBlockNotFound, got %v", err)
	}
}

func TestRemoveThenAddNeverReusesID(t *testing.T) {
	planner, day := newTestPlanner(t)
	draft := BlockDraft{Kind: BlockKindActivity, Title: "Gion walk"}

	original, err := planner.AddBlock(day.ID, draft, -1)
	if err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if err := planner.RemoveBlock(day.ID, original.ID); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	replacement, err := planner.AddBlock(day.ID, draft, -1)
	if err != nil {
		t.Fatalf("unexpected re-add error: %v", err)
	}
	if replacement.ID == original.ID {
		t.Fatalf("re-added block must receive a fresh id, got %s twice", original.ID)
	}
	if len(day.Blocks) != 1 {
		t.Fatalf("expected day length restored to 1, got %d", len(day.Blocks))
	}
}

func TestMoveBlockToFrontShiftsRestRight(t *testing.T) {
	planner, day := newTestPlanner(t)
	mustAddBlock(t, planner, day.ID, "A", BlockKindActivity, "")
	mustAddBlock(t, planner, day.ID, "B", BlockKindActivity, "")
	mustAddBlock(t, planner, day.ID, "C", BlockKindActivity, "")
	mustAddBlock(t, planner, day.ID, "D", BlockKindActivity, "")

	// Dragging the block at index 2 to index 0.
	if err := planner.MoveBlock(day.ID, day.ID, day.Blocks[2].ID, 0); err != nil {
		t.Fatalf("unexpected move error: %v", err)
	}
	assertOrder(t, day, "C", "A", "B", "D")
}

func TestMoveBlockRoundTripRestoresOrder(t *testing.T) {
	planner, day := newTestPlanner(t)
	mustAddBlock(t, planner, day.ID, "A", BlockKindActivity, "")
	moved := mustAddBlock(t, planner, day.ID, "B", BlockKindActivity, "")
	mustAddBlock(t, planner, day.ID, "C", BlockKindActivity, "")

	if err := planner.MoveBlock(day.ID, day.ID, moved.ID, 2); err != nil {
		t.Fatalf("unexpected move error: %v", err)
	}
	assertOrder(t, day, "A", "C", "B")

	if err := planner.MoveBlock(day.ID, day.ID, moved.ID, 1); err != nil {
		t.Fatalf("unexpected move-back error: %v", err)
	}
	assertOrder(t, day, "A", "B", "C")
}

func TestMoveBlockAcrossDaysIsAtomic(t *testing.T) {
	planner, firstDay := newTestPlanner(t)
	secondDay, err := planner.AddDay("2026-04-11")
	if err != nil {
		t.Fatalf("failed to add second day: %v", err)
	}
	mustAddBlock(t, planner, firstDay.ID, "A", BlockKindActivity, "")
	moved := mustAddBlock(t, planner, firstDay.ID, "B", BlockKindActivity, "")
	mustAddBlock(t, planner, secondDay.ID, "X", BlockKindActivity, "")

	if err := planner.MoveBlock(firstDay.ID, secondDay.ID, moved.ID, 0); err != nil {
		t.Fatalf("unexpected cross-day move error: %v", err)
	}
	assertOrder(t, firstDay, "A")
	assertOrder(t, secondDay, "B", "X")
	if moved.DayID != secondDay.ID {
		t.Fatalf("moved block still claims day %s", moved.DayID)
	}

	// The block appears in exactly one sequence.
	if firstDay.indexOf(moved.ID) != -1 {
		t.Fatalf("block still present in source day")
	}
}

func TestMoveBlockClampsDestinationIndex(t *testing.T) {
	planner, day := newTestPlanner(t)
	moved := mustAddBlock(t, planner, day.ID, "A", BlockKindActivity, "")
	mustAddBlock(t, planner, day.ID, "B", BlockKindActivity, "")

	// Far beyond the day length clamps to append at end.
	if err := planner.MoveBlock(day.ID, day.ID, moved.ID, 99); err != nil {
		t.Fatalf("unexpected move error: %v", err)
	}
	assertOrder(t, day, "B", "A")

	if err := planner.MoveBlock(day.ID, day.ID, moved.ID, -7); err != nil {
		t.Fatalf("unexpected move error: %v", err)
	}
	assertOrder(t, day, "A", "B")
}

func TestMoveBlockUnknownBlock(t *testing.T) {
	planner, day := newTestPlanner(t)
	err := planner.MoveBlock(day.ID, day.ID, BlockID("missing"), 0)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestOrderStaysDenseAcrossMutations(t *testing.T) {
	planner, day := newTestPlanner(t)
	ids := make([]BlockID, 0, 5)
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		ids = append(ids, mustAddBlock(t, planner, day.ID, title, BlockKindActivity, "").ID)
	}

	if err := planner.RemoveBlock(day.ID, ids[1]); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if err := planner.MoveBlock(day.ID, day.ID, ids[4], 0); err != nil {
		t.Fatalf("unexpected move error: %v", err)
	}
	if _, err := planner.AddBlock(day.ID, BlockDraft{Kind: BlockKindNote, Title: "F"}, 2); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}

	seen := make(map[BlockID]bool)
	for i, block := range day.Blocks {
		if block.Position != i {
			t.Fatalf("position %d holds block with stored position %d", i, block.Position)
		}
		if seen[block.ID] {
			t.Fatalf("block %s appears twice", block.ID)
		}
		seen[block.ID] = true
	}
}

func TestAttachmentLifecycle(t *testing.T) {
	planner, day := newTestPlanner(t)
	block := mustAddBlock(t, planner, day.ID, "Ryokan", BlockKindHotel, "")

	attachment, err := planner.AddAttachment(day.ID, block.ID, "Booking confirmation", "https://example.test/booking", AttachmentTypeLink)
	if err != nil {
		t.Fatalf("unexpected attachment error: %v", err)
	}
	if attachment.BlockID != block.ID {
		t.Fatalf("attachment not bound to block")
	}
	if len(block.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(block.Attachments))
	}

	if err := planner.RemoveAttachment(day.ID, block.ID, attachment.ID); err != nil {
		t.Fatalf("unexpected removal error: %v", err)
	}
	if len(block.Attachments) != 0 {
		t.Fatalf("attachment not removed")
	}

	err = planner.RemoveAttachment(day.ID, block.ID, attachment.ID)
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestCommentsCarryMonotonicTimestamps(t *testing.T) {
	trip := &Trip{ID: TripID("trip-1"), Days: []*Day{}}
	frozen := time.Unix(1750000000, 0).UTC()
	planner, err := NewPlanner(trip, PlannerConfig{
		Clock:      func() time.Time { return frozen },
		IDProvider: &staticIDGenerator{prefix: "id"},
	})
	if err != nil {
		t.Fatalf("failed to construct planner: %v", err)
	}
	day, err := planner.AddDay("")
	if err != nil {
		t.Fatalf("failed to add day: %v", err)
	}
	block := mustAddBlock(t, planner, day.ID, "Dinner", BlockKindActivity, "19:00")

	first, err := planner.AddComment(day.ID, block.ID, "mika", "book ahead")
	if err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	second, err := planner.AddComment(day.ID, block.ID, "jon", "done")
	if err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}

	if !second.CreatedAt.After(first.CreatedAt) {
		t.Fatalf("comment timestamps must be strictly increasing: %v then %v", first.CreatedAt, second.CreatedAt)
	}
	if len(block.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(block.Comments))
	}
}

func TestAddBlockSurfacesIDGenerationFailure(t *testing.T) {
	trip := &Trip{
		ID:   TripID("trip-1"),
		Days: []*Day{{ID: DayID("day-1"), TripID: TripID("trip-1"), Blocks: []*Block{}}},
	}
	planner, err := NewPlanner(trip, PlannerConfig{IDProvider: failingIDGenerator{}})
	if err != nil {
		t.Fatalf("failed to construct planner: %v", err)
	}
	if _, err := planner.AddBlock(DayID("day-1"), BlockDraft{Kind: BlockKindNote}, -1); err == nil {
		t.Fatalf("expected id generation failure to surface")
	}
}
