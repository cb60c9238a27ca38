package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/itinerary"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/reorder"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/storage"
	"go.uber.org/zap"
)

// Session is one open planning view of a trip: the in-memory day/block stores,
// the drag coordinator bound to them, and the cached day version counters.
// All mutations are serialized by the session mutex; the stores themselves are
// single-writer by design.
type Session struct {
	mu          sync.Mutex
	tripID      itinerary.TripID
	planner     *itinerary.Planner
	coordinator *reorder.Coordinator
	store       *storage.PlannerStore
	versions    map[itinerary.DayID]int64
	logger      *zap.Logger
}

// PersistDayOrders implements reorder.OrderPersister: it forwards the
// committed orders to storage in one transactional write under the session's
// cached day versions, and advances the cache on acceptance. A stale-version
// rejection leaves every listed day's rows untouched and propagates to the
// coordinator, which rolls the local stores back.
func (s *Session) PersistDayOrders(ctx context.Context, orders []reorder.DayOrder) error {
	writes := make([]storage.DayOrderWrite, 0, len(orders))
	for _, order := range orders {
		writes = append(writes, storage.DayOrderWrite{
			DayID:           order.DayID,
			OrderedBlockIDs: order.BlockIDs,
			ExpectedVersion: s.versions[order.DayID],
		})
	}
	newVersions, err := s.store.SaveDayOrders(ctx, writes)
	if err != nil {
		return err
	}
	for dayID, version := range newVersions {
		s.versions[dayID] = version
	}
	return nil
}

// AddDay appends a day and persists it.
func (s *Session) AddDay(ctx context.Context, date string) (*itinerary.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := s.planner.AddDay(date)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertDay(ctx, day, len(s.planner.Trip().Days)-1); err != nil {
		return nil, err
	}
	s.versions[day.ID] = 1
	return day.Clone(), nil
}

// AddBlock inserts a block locally, then writes the row and the day's new
// order through to storage.
func (s *Session) AddBlock(ctx context.Context, dayID itinerary.DayID, draft itinerary.BlockDraft, atIndex int) (*itinerary.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, err := s.planner.AddBlock(dayID, draft, atIndex)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveBlock(ctx, block); err != nil {
		return nil, err
	}
	if err := s.persistOrderLocked(ctx, dayID); err != nil {
		return nil, err
	}
	return block.Clone(), nil
}

// UpdateBlock merges the patch and writes the row through.
func (s *Session) UpdateBlock(ctx context.Context, dayID itinerary.DayID, blockID itinerary.BlockID, patch itinerary.BlockPatch) (*itinerary.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, err := s.planner.UpdateBlock(dayID, blockID, patch)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveBlock(ctx, block); err != nil {
		return nil, err
	}
	return block.Clone(), nil
}

// RemoveBlock deletes the block locally and from storage, then persists the
// compacted order.
func (s *Session) RemoveBlock(ctx context.Context, dayID itinerary.DayID, blockID itinerary.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.planner.RemoveBlock(dayID, blockID); err != nil {
		return err
	}
	if err := s.store.DeleteBlock(ctx, blockID); err != nil {
		return err
	}
	return s.persistOrderLocked(ctx, dayID)
}

// MoveBlock runs a full drag through the coordinator: begin on the source
// slot, hover to the target, drop. Rollback on persistence rejection is the
// coordinator's job; the caller only sees the surfaced error.
func (s *Session) MoveBlock(ctx context.Context, fromDayID, toDayID itinerary.DayID, blockID itinerary.BlockID, atIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.coordinator.Begin(fromDayID, blockID); err != nil {
		return err
	}
	if err := s.coordinator.Hover(toDayID, atIndex); err != nil {
		cancelErr := s.coordinator.Cancel()
		if cancelErr != nil {
			s.logger.Warn("drag cancel failed", zap.Error(cancelErr))
		}
		return err
	}
	return s.coordinator.Drop(ctx)
}

// AddAttachment appends an attachment and writes it through.
func (s *Session) AddAttachment(ctx context.Context, dayID itinerary.DayID, blockID itinerary.BlockID, label, url string, attachmentType itinerary.AttachmentType) (*itinerary.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attachment, err := s.planner.AddAttachment(dayID, blockID, label, url, attachmentType)
	if err != nil {
		return nil, err
	}
	day := s.planner.Trip().DayByID(dayID)
	block := blockByID(day, blockID)
	position := len(block.Attachments) - 1
	if err := s.store.SaveAttachment(ctx, attachment, position); err != nil {
		return nil, err
	}
	detached := *attachment
	return &detached, nil
}

// RemoveAttachment deletes an attachment locally and from storage.
func (s *Session) RemoveAttachment(ctx context.Context, dayID itinerary.DayID, blockID itinerary.BlockID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.planner.RemoveAttachment(dayID, blockID, attachmentID); err != nil {
		return err
	}
	return s.store.DeleteAttachment(ctx, attachmentID)
}

// AddComment appends a comment and writes it through.
func (s *Session) AddComment(ctx context.Context, dayID itinerary.DayID, blockID itinerary.BlockID, authorName, message string) (*itinerary.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, err := s.planner.AddComment(dayID, blockID, authorName, message)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveComment(ctx, comment); err != nil {
		return nil, err
	}
	detached := *comment
	return &detached, nil
}

// Snapshot returns a deep copy of the trip taken under the session mutex.
// Handlers read and serialize it after the lock is released, while other
// requests keep mutating the live trip, so the copy is what keeps concurrent
// readers from ever observing a half-applied move.
func (s *Session) Snapshot() *itinerary.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planner.Trip().Clone()
}

// GroupedFeed derives the time-of-day view of one day. The buckets hold
// copies for the same reason Snapshot does.
func (s *Session) GroupedFeed(dayID itinerary.DayID) (itinerary.GroupedDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.planner.Trip().DayByID(dayID)
	if day == nil {
		return itinerary.GroupedDay{}, fmt.Errorf("%w: %s", itinerary.ErrDayNotFound, dayID)
	}
	return itinerary.GroupByTimeOfDay(day.Clone()), nil
}

func (s *Session) persistOrderLocked(ctx context.Context, dayID itinerary.DayID) error {
	day := s.planner.Trip().DayByID(dayID)
	if day == nil {
		return fmt.Errorf("%w: %s", itinerary.ErrDayNotFound, dayID)
	}
	return s.PersistDayOrders(ctx, []reorder.DayOrder{{DayID: dayID, BlockIDs: day.BlockIDs()}})
}

func blockByID(day *itinerary.Day, blockID itinerary.BlockID) *itinerary.Block {
	if day == nil {
		return nil
	}
	for _, block := range day.Blocks {
		if block.ID == blockID {
			return block
		}
	}
	return nil
}

// SessionRegistry hands out one session per trip, loading the trip from
// storage on first access. Sessions whose write-through failed are dropped so
// the next access reloads persisted truth.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[itinerary.TripID]*Session
	store    *storage.PlannerStore
	ids      itinerary.IDProvider
	clock    func() time.Time
	logger   *zap.Logger
}

// NewSessionRegistry builds an empty registry over the store.
func NewSessionRegistry(store *storage.PlannerStore, ids itinerary.IDProvider, clock func() time.Time, logger *zap.Logger) (*SessionRegistry, error) {
	if store == nil {
		return nil, errors.New("server: planner store is required")
	}
	if ids == nil {
		return nil, errors.New("server: id provider is required")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		sessions: make(map[itinerary.TripID]*Session),
		store:    store,
		ids:      ids,
		clock:    clock,
		logger:   logger,
	}, nil
}

// CreateTrip persists a new trip and opens its session.
func (r *SessionRegistry) CreateTrip(ctx context.Context, title string) (*Session, error) {
	rawID, err := r.ids.NewID()
	if err != nil {
		return nil, err
	}
	tripID := itinerary.TripID(rawID)
	if err := r.store.CreateTrip(ctx, tripID, title); err != nil {
		return nil, err
	}

	trip := &itinerary.Trip{ID: tripID, Title: title, Days: []*itinerary.Day{}}
	session, err := r.buildSession(trip, map[itinerary.DayID]int64{})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[tripID] = session
	r.mu.Unlock()
	return session, nil
}

// Session returns the open session for the trip, loading it on first access.
func (r *SessionRegistry) Session(ctx context.Context, tripID itinerary.TripID) (*Session, error) {
	r.mu.Lock()
	if session, ok := r.sessions[tripID]; ok {
		r.mu.Unlock()
		return session, nil
	}
	r.mu.Unlock()

	trip, versions, err := r.store.LoadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	session, err := r.buildSession(trip, versions)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[tripID]; ok {
		return existing, nil
	}
	r.sessions[tripID] = session
	return session, nil
}

// Invalidate drops a cached session so the next access reloads from storage.
func (r *SessionRegistry) Invalidate(tripID itinerary.TripID) {
	r.mu.Lock()
	delete(r.sessions, tripID)
	r.mu.Unlock()
}

func (r *SessionRegistry) buildSession(trip *itinerary.Trip, versions map[itinerary.DayID]int64) (*Session, error) {
	planner, err := itinerary.NewPlanner(trip, itinerary.PlannerConfig{
		Clock:      r.clock,
		IDProvider: r.ids,
	})
	if err != nil {
		return nil, err
	}
	session := &Session{
		tripID:   trip.ID,
		planner:  planner,
		store:    r.store,
		versions: versions,
		logger:   r.logger,
	}
	coordinator, err := reorder.NewCoordinator(reorder.CoordinatorConfig{
		Planner:   planner,
		Persister: session,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	session.coordinator = coordinator
	return session, nil
}
