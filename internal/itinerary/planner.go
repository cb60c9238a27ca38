package itinerary

import (
	"errors"
	"fmt"
	"time"
)

var errMissingIDProvider = errors.New("id provider is required")

// PlannerConfig carries the collaborators of a Planner.
type PlannerConfig struct {
	Clock      func() time.Time
	IDProvider IDProvider
}

// Planner owns a single trip's day and block stores for one planning session.
// It is not safe for concurrent mutation; a session serializes access.
type Planner struct {
	trip  *Trip
	clock func() time.Time
	ids   IDProvider
}

// NewPlanner wraps an in-memory trip with the store operations.
func NewPlanner(trip *Trip, cfg PlannerConfig) (*Planner, error) {
	if trip == nil {
		return nil, errors.New("itinerary: trip is required")
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Planner{trip: trip, clock: clock, ids: cfg.IDProvider}, nil
}

// Trip exposes the underlying trip for read-only traversal.
func (p *Planner) Trip() *Trip {
	return p.trip
}

// AddDay appends a day to the trip. An empty date makes an unscheduled
// placeholder day.
func (p *Planner) AddDay(date string) (*Day, error) {
	rawID, err := p.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("itinerary: day id generation failed: %w", err)
	}
	day := &Day{
		ID:     DayID(rawID),
		TripID: p.trip.ID,
		Date:   date,
		Blocks: []*Block{},
	}
	p.trip.Days = append(p.trip.Days, day)
	return day, nil
}

// AddBlock inserts a new block built from the draft at atIndex. A negative
// atIndex means append at the end; an atIndex greater than the current length
// is rejected with ErrInvalidIndex. Ids are never reused: re-adding an
// identical draft after removal always yields a fresh id.
func (p *Planner) AddBlock(dayID DayID, draft BlockDraft, atIndex int) (*Block, error) {
	day := p.trip.DayByID(dayID)
	if day == nil {
		return nil, fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	if atIndex < 0 {
		atIndex = len(day.Blocks)
	}
	if atIndex > len(day.Blocks) {
		return nil, fmt.Errorf("%w: %d exceeds day length %d", ErrInvalidIndex, atIndex, len(day.Blocks))
	}

	rawID, err := p.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("itinerary: block id generation failed: %w", err)
	}
	block := &Block{
		ID:              BlockID(rawID),
		DayID:           day.ID,
		Kind:            draft.Kind,
		Title:           draft.Title,
		Time:            draft.Time,
		DurationMinutes: draft.DurationMinutes,
		Description:     draft.Description,
		Notes:           draft.Notes,
		Coordinates:     draft.Coordinates,
		Flight:          draft.Flight,
		Hotel:           draft.Hotel,
		Place:           draft.Place,
		Attachments:     []Attachment{},
		Comments:        []Comment{},
	}

	day.Blocks = append(day.Blocks, nil)
	copy(day.Blocks[atIndex+1:], day.Blocks[atIndex:])
	day.Blocks[atIndex] = block
	reindexDay(day)
	return block, nil
}

// UpdateBlock merges the patch into the block's fields. Order is untouched.
func (p *Planner) UpdateBlock(dayID DayID, blockID BlockID, patch BlockPatch) (*Block, error) {
	day := p.trip.DayByID(dayID)
	if day == nil {
		return nil, fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	index := day.indexOf(blockID)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	block := day.Blocks[index]

	if patch.Title != nil {
		block.Title = *patch.Title
	}
	if patch.Time != nil {
		block.Time = *patch.Time
	}
	if patch.DurationMinutes != nil {
		block.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Description != nil {
		block.Description = *patch.Description
	}
	if patch.Notes != nil {
		block.Notes = *patch.Notes
	}
	if patch.Coordinates != nil {
		block.Coordinates = patch.Coordinates
	}
	if patch.Flight != nil {
		block.Flight = patch.Flight
	}
	if patch.Hotel != nil {
		block.Hotel = patch.Hotel
	}
	if patch.Place != nil {
		block.Place = patch.Place
	}
	return block, nil
}

// RemoveBlock deletes the block and compacts the day's order. Attachments and
// comments go with it. Removal is not idempotent: a second call reports
// ErrBlockNotFound, which callers treat as no-op success.
func (p *Planner) RemoveBlock(dayID DayID, blockID BlockID) error {
	day := p.trip.DayByID(dayID)
	if day == nil {
		return fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	index := day.indexOf(blockID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	day.Blocks = append(day.Blocks[:index], day.Blocks[index+1:]...)
	reindexDay(day)
	return nil
}

// MoveBlock removes blockID from fromDay and inserts it into toDay at atIndex,
// clamped into [0, len(toDay)]. Same-day moves are a standard array move: the
// block is removed from its old slot first, so the insert index addresses the
// compacted sequence. No reader ever observes the block in two days.
func (p *Planner) MoveBlock(fromDayID, toDayID DayID, blockID BlockID, atIndex int) error {
	fromDay := p.trip.DayByID(fromDayID)
	if fromDay == nil {
		return fmt.Errorf("%w: %s", ErrDayNotFound, fromDayID)
	}
	toDay := p.trip.DayByID(toDayID)
	if toDay == nil {
		return fmt.Errorf("%w: %s", ErrDayNotFound, toDayID)
	}
	sourceIndex := fromDay.indexOf(blockID)
	if sourceIndex < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	block := fromDay.Blocks[sourceIndex]
	fromDay.Blocks = append(fromDay.Blocks[:sourceIndex], fromDay.Blocks[sourceIndex+1:]...)

	if atIndex < 0 {
		atIndex = 0
	}
	if atIndex > len(toDay.Blocks) {
		atIndex = len(toDay.Blocks)
	}
	toDay.Blocks = append(toDay.Blocks, nil)
	copy(toDay.Blocks[atIndex+1:], toDay.Blocks[atIndex:])
	toDay.Blocks[atIndex] = block
	block.DayID = toDay.ID

	reindexDay(fromDay)
	if toDay != fromDay {
		reindexDay(toDay)
	}
	return nil
}

// AddAttachment appends an attachment to the block's sub-sequence.
func (p *Planner) AddAttachment(dayID DayID, blockID BlockID, label, url string, attachmentType AttachmentType) (*Attachment, error) {
	block, err := p.findBlock(dayID, blockID)
	if err != nil {
		return nil, err
	}
	rawID, err := p.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("itinerary: attachment id generation failed: %w", err)
	}
	attachment := Attachment{
		ID:      rawID,
		BlockID: block.ID,
		Label:   label,
		URL:     url,
		Type:    attachmentType,
	}
	block.Attachments = append(block.Attachments, attachment)
	return &block.Attachments[len(block.Attachments)-1], nil
}

// RemoveAttachment deletes an attachment from the owning block.
func (p *Planner) RemoveAttachment(dayID DayID, blockID BlockID, attachmentID string) error {
	block, err := p.findBlock(dayID, blockID)
	if err != nil {
		return err
	}
	for i, attachment := range block.Attachments {
		if attachment.ID == attachmentID {
			block.Attachments = append(block.Attachments[:i], block.Attachments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAttachmentNotFound, attachmentID)
}

// AddComment appends a comment with a monotonic CreatedAt: a comment's
// timestamp is always strictly after its predecessor's, even when the wall
// clock stands still between calls.
func (p *Planner) AddComment(dayID DayID, blockID BlockID, authorName, message string) (*Comment, error) {
	block, err := p.findBlock(dayID, blockID)
	if err != nil {
		return nil, err
	}
	rawID, err := p.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("itinerary: comment id generation failed: %w", err)
	}
	createdAt := p.clock().UTC()
	if count := len(block.Comments); count > 0 {
		last := block.Comments[count-1].CreatedAt
		if !createdAt.After(last) {
			createdAt = last.Add(time.Millisecond)
		}
	}
	comment := Comment{
		ID:         rawID,
		BlockID:    block.ID,
		AuthorName: authorName,
		Message:    message,
		CreatedAt:  createdAt,
	}
	block.Comments = append(block.Comments, comment)
	return &block.Comments[len(block.Comments)-1], nil
}

func (p *Planner) findBlock(dayID DayID, blockID BlockID) (*Block, error) {
	day := p.trip.DayByID(dayID)
	if day == nil {
		return nil, fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	index := day.indexOf(blockID)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	return day.Blocks[index], nil
}

// reindexDay restores the dense 0..n-1 position invariant after a structural
// change. Internal; callers never need to invoke it directly.
func reindexDay(day *Day) {
	for i, block := range day.Blocks {
		block.Position = i
	}
}
