// Package reorder implements the drag-to-reorder state machine bridging
// gesture input and persisted day order.
package reorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/itinerary"
	"go.uber.org/zap"
)

// State names a coordinator phase. Transitions:
// idle -> dragging -> (committing | idle) ; committing -> (idle | rolling_back -> idle).
type State string

const (
	StateIdle        State = "idle"
	StateDragging    State = "dragging"
	StateCommitting  State = "committing"
	StateRollingBack State = "rolling_back"
)

var (
	// ErrDragInProgress rejects Begin while a previous drag has not settled.
	ErrDragInProgress = errors.New("reorder: drag already in progress")
	// ErrNoActiveDrag rejects Hover/Drop/Cancel without a preceding Begin.
	ErrNoActiveDrag = errors.New("reorder: no active drag")
	// ErrPersistenceFailure wraps a rejected order write; local state has
	// already been rolled back when this is returned.
	ErrPersistenceFailure = errors.New("reorder: persistence failure")
)

// DayOrder is one day's committed ordered block id sequence.
type DayOrder struct {
	DayID    itinerary.DayID
	BlockIDs []itinerary.BlockID
}

// OrderPersister is the persistence collaborator. It receives every day order
// a commit touches in a single call and must write them atomically: either
// all listed days take the new order or none do.
type OrderPersister interface {
	PersistDayOrders(ctx context.Context, orders []DayOrder) error
}

// CoordinatorConfig carries the coordinator's collaborators.
type CoordinatorConfig struct {
	Planner   *itinerary.Planner
	Persister OrderPersister
	Logger    *zap.Logger
}

// Coordinator owns the drag state for one planning session. It is an explicit
// object handed to the caller, never ambient state, so independent planner
// views cannot collide. Drags are serialized: a new drag cannot begin until
// the previous one has settled back to idle.
type Coordinator struct {
	planner   *itinerary.Planner
	persister OrderPersister
	logger    *zap.Logger
	state     State
	drag      *dragState
}

type dragState struct {
	blockID     itinerary.BlockID
	sourceDayID itinerary.DayID
	sourceIndex int
	targetDayID itinerary.DayID
	targetIndex int
	snapshots   map[itinerary.DayID][]itinerary.BlockID
}

// NewCoordinator builds an idle coordinator for the planner's trip.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Planner == nil {
		return nil, errors.New("reorder: planner is required")
	}
	if cfg.Persister == nil {
		return nil, errors.New("reorder: order persister is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		planner:   cfg.Planner,
		persister: cfg.Persister,
		logger:    logger,
		state:     StateIdle,
	}, nil
}

// State reports the current phase.
func (c *Coordinator) State() State {
	return c.state
}

// Begin starts a drag on the named block. The pre-drag order of every day is
// snapshotted here; a later rollback restores exactly this arrangement.
func (c *Coordinator) Begin(dayID itinerary.DayID, blockID itinerary.BlockID) error {
	if c.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrDragInProgress, c.state)
	}
	day := c.planner.Trip().DayByID(dayID)
	if day == nil {
		return fmt.Errorf("%w: %s", itinerary.ErrDayNotFound, dayID)
	}
	sourceIndex := -1
	for i, block := range day.Blocks {
		if block.ID == blockID {
			sourceIndex = i
			break
		}
	}
	if sourceIndex < 0 {
		return fmt.Errorf("%w: %s", itinerary.ErrBlockNotFound, blockID)
	}

	snapshots := make(map[itinerary.DayID][]itinerary.BlockID, len(c.planner.Trip().Days))
	for _, tripDay := range c.planner.Trip().Days {
		snapshots[tripDay.ID] = tripDay.BlockIDs()
	}

	c.drag = &dragState{
		blockID:     blockID,
		sourceDayID: dayID,
		sourceIndex: sourceIndex,
		targetDayID: dayID,
		targetIndex: sourceIndex,
		snapshots:   snapshots,
	}
	c.state = StateDragging
	return nil
}

// Hover updates the live drop target. It never touches the stores, so
// repeated hover changes while the pointer moves are cheap.
func (c *Coordinator) Hover(dayID itinerary.DayID, index int) error {
	if c.state != StateDragging {
		return ErrNoActiveDrag
	}
	if c.planner.Trip().DayByID(dayID) == nil {
		return fmt.Errorf("%w: %s", itinerary.ErrDayNotFound, dayID)
	}
	c.drag.targetDayID = dayID
	c.drag.targetIndex = index
	return nil
}

// Cancel abandons the drag with the block back at its origin. No mutation
// happened during dragging, so there is nothing to roll back.
func (c *Coordinator) Cancel() error {
	if c.state != StateDragging {
		return ErrNoActiveDrag
	}
	c.drag = nil
	c.state = StateIdle
	return nil
}

// Drop commits the drag: the local move is applied synchronously, then the
// new ordered id sequences of the affected days (one or two) are handed to
// the persister as a single atomic write, so a cross-day move can never land
// half-persisted. A rejection rolls local state back to the Begin snapshot
// and surfaces the failure; the caller decides whether to retry the identical
// mutation. Dropping a block onto its own current slot is a no-op and issues
// no persistence call.
func (c *Coordinator) Drop(ctx context.Context) error {
	if c.state != StateDragging {
		return ErrNoActiveDrag
	}
	drag := c.drag

	if c.isNoOpDrop(drag) {
		c.drag = nil
		c.state = StateIdle
		return nil
	}

	if err := c.planner.MoveBlock(drag.sourceDayID, drag.targetDayID, drag.blockID, drag.targetIndex); err != nil {
		c.drag = nil
		c.state = StateIdle
		return err
	}

	c.state = StateCommitting
	affected := []itinerary.DayID{drag.sourceDayID}
	if drag.targetDayID != drag.sourceDayID {
		affected = append(affected, drag.targetDayID)
	}
	orders := make([]DayOrder, 0, len(affected))
	for _, dayID := range affected {
		day := c.planner.Trip().DayByID(dayID)
		orders = append(orders, DayOrder{DayID: dayID, BlockIDs: day.BlockIDs()})
	}
	if err := c.persister.PersistDayOrders(ctx, orders); err != nil {
		c.logger.Warn("day order persistence rejected",
			zap.String("source_day_id", drag.sourceDayID.String()),
			zap.String("target_day_id", drag.targetDayID.String()),
			zap.Error(err))
		c.rollback(drag)
		c.drag = nil
		c.state = StateIdle
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	c.drag = nil
	c.state = StateIdle
	return nil
}

// isNoOpDrop reports whether the pending target resolves to the block's
// current slot. Out-of-range targets clamp the same way MoveBlock clamps.
func (c *Coordinator) isNoOpDrop(drag *dragState) bool {
	if drag.targetDayID != drag.sourceDayID {
		return false
	}
	day := c.planner.Trip().DayByID(drag.sourceDayID)
	if day == nil {
		return false
	}
	target := drag.targetIndex
	if target < 0 {
		target = 0
	}
	if target >= len(day.Blocks) {
		target = len(day.Blocks) - 1
	}
	return target == drag.sourceIndex
}

// rollback restores every day's order sequence from the Begin snapshot. All
// blocks still exist (a move never drops one), so reordering pointers by the
// snapshotted id sequences reproduces the pre-drag arrangement exactly.
func (c *Coordinator) rollback(drag *dragState) {
	c.state = StateRollingBack

	blocksByID := make(map[itinerary.BlockID]*itinerary.Block)
	for _, day := range c.planner.Trip().Days {
		for _, block := range day.Blocks {
			blocksByID[block.ID] = block
		}
	}

	for _, day := range c.planner.Trip().Days {
		snapshot, ok := drag.snapshots[day.ID]
		if !ok {
			continue
		}
		restored := make([]*itinerary.Block, 0, len(snapshot))
		for _, blockID := range snapshot {
			block, ok := blocksByID[blockID]
			if !ok {
				continue
			}
			block.DayID = day.ID
			restored = append(restored, block)
		}
		day.Blocks = restored
		for i, block := range day.Blocks {
			block.Position = i
		}
	}
}
