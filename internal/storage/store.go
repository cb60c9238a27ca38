package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/itinerary"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()

	// ErrTripNotFound indicates an unknown trip identifier.
	ErrTripNotFound = errors.New("storage: trip not found")
	// ErrDayNotFound indicates an unknown day identifier.
	ErrDayNotFound = errors.New("storage: day not found")
	// ErrStaleDayVersion rejects an order write whose expected version does
	// not match the persisted day version. The writer's view is stale; its
	// session must roll back and surface the conflict.
	ErrStaleDayVersion = errors.New("storage: stale day version")
)

// StoreConfig carries the store's collaborators.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// PlannerStore persists trips, days, blocks and their sub-entities. Every
// structural order change goes through SaveDayOrder, which enforces the
// per-day monotonic version counter.
type PlannerStore struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewPlannerStore validates configuration and returns a store.
func NewPlannerStore(cfg StoreConfig) (*PlannerStore, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &PlannerStore{db: cfg.Database, clock: clock, logger: logger}, nil
}

// CreateTrip inserts a new trip row.
func (s *PlannerStore) CreateTrip(ctx context.Context, tripID itinerary.TripID, title string) error {
	record := TripRecord{
		TripID:           tripID.String(),
		Title:            title,
		CreatedAtSeconds: s.clock().UTC().Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError("trip_insert_failed", err, zap.String("trip_id", tripID.String()))
		return err
	}
	return nil
}

// InsertDay appends a day row at the given position.
func (s *PlannerStore) InsertDay(ctx context.Context, day *itinerary.Day, position int) error {
	record := DayRecord{
		DayID:    day.ID.String(),
		TripID:   day.TripID.String(),
		Date:     day.Date,
		Position: position,
		Version:  1,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError("day_insert_failed", err, zap.String("day_id", day.ID.String()))
		return err
	}
	return nil
}

// SaveBlock upserts the block row, including its current position and the
// kind-specific detail payload.
func (s *PlannerStore) SaveBlock(ctx context.Context, block *itinerary.Block) error {
	record, err := blockToRecord(block)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		s.logError("block_save_failed", err, zap.String("block_id", block.ID.String()))
		return err
	}
	return nil
}

// DeleteBlock removes the block row and cascades its attachments and
// comments in one transaction.
func (s *PlannerStore) DeleteBlock(ctx context.Context, blockID itinerary.BlockID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("block_id = ?", blockID.String()).Delete(&AttachmentRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("block_id = ?", blockID.String()).Delete(&CommentRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("block_id = ?", blockID.String()).Delete(&BlockRecord{}).Error
	})
}

// DayOrderWrite is one day's committed ordered block id sequence plus the
// version counter the writer last observed for that day.
type DayOrderWrite struct {
	DayID           itinerary.DayID
	OrderedBlockIDs []itinerary.BlockID
	ExpectedVersion int64
}

// SaveDayOrders writes the committed order of one or more days in a single
// transaction: either every listed day takes its new order and bumped
// version, or none does. A cross-day move therefore never leaves one day's
// rows compacted while the other's write was rejected. Each write is accepted
// only when its expected version matches the persisted counter; blocks listed
// for a day are reassigned to it, covering the cross-day half of a move. The
// new version of every day is returned.
func (s *PlannerStore) SaveDayOrders(ctx context.Context, writes []DayOrderWrite) (map[itinerary.DayID]int64, error) {
	newVersions := make(map[itinerary.DayID]int64, len(writes))
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, write := range writes {
			var day DayRecord
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("day_id = ?", write.DayID.String()).
				Take(&day).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrDayNotFound, write.DayID)
			}
			if err != nil {
				return err
			}
			if day.Version != write.ExpectedVersion {
				return fmt.Errorf("%w: day %s at version %d, write expected %d",
					ErrStaleDayVersion, write.DayID, day.Version, write.ExpectedVersion)
			}

			for position, blockID := range write.OrderedBlockIDs {
				err := tx.Model(&BlockRecord{}).
					Where("block_id = ?", blockID.String()).
					Updates(map[string]any{
						"day_id":   write.DayID.String(),
						"position": position,
					}).Error
				if err != nil {
					return err
				}
			}

			newVersion := write.ExpectedVersion + 1
			err = tx.Model(&DayRecord{}).
				Where("day_id = ?", write.DayID.String()).
				Update("version", newVersion).Error
			if err != nil {
				return err
			}
			newVersions[write.DayID] = newVersion
		}
		return nil
	})
	if txErr != nil {
		s.logError("day_order_save_failed", txErr, zap.Int("day_count", len(writes)))
		return nil, txErr
	}
	return newVersions, nil
}

// SaveDayOrder writes a single day's committed order; see SaveDayOrders.
func (s *PlannerStore) SaveDayOrder(ctx context.Context, dayID itinerary.DayID, orderedBlockIDs []itinerary.BlockID, expectedVersion int64) (int64, error) {
	newVersions, err := s.SaveDayOrders(ctx, []DayOrderWrite{{
		DayID:           dayID,
		OrderedBlockIDs: orderedBlockIDs,
		ExpectedVersion: expectedVersion,
	}})
	if err != nil {
		return 0, err
	}
	return newVersions[dayID], nil
}

// SaveAttachment inserts an attachment row at the given position.
func (s *PlannerStore) SaveAttachment(ctx context.Context, attachment *itinerary.Attachment, position int) error {
	record := AttachmentRecord{
		AttachmentID: attachment.ID,
		BlockID:      attachment.BlockID.String(),
		Position:     position,
		Label:        attachment.Label,
		URL:          attachment.URL,
		Type:         string(attachment.Type),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError("attachment_insert_failed", err, zap.String("attachment_id", attachment.ID))
		return err
	}
	return nil
}

// DeleteAttachment removes an attachment row.
func (s *PlannerStore) DeleteAttachment(ctx context.Context, attachmentID string) error {
	return s.db.WithContext(ctx).
		Where("attachment_id = ?", attachmentID).
		Delete(&AttachmentRecord{}).Error
}

// SaveComment appends a comment row. Comments are never updated or deleted.
func (s *PlannerStore) SaveComment(ctx context.Context, comment *itinerary.Comment) error {
	record := CommentRecord{
		CommentID:       comment.ID,
		BlockID:         comment.BlockID.String(),
		AuthorName:      comment.AuthorName,
		Message:         comment.Message,
		CreatedAtMillis: comment.CreatedAt.UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError("comment_insert_failed", err, zap.String("comment_id", comment.ID))
		return err
	}
	return nil
}

// LoadTrip materializes a trip with its ordered days, blocks, attachments and
// comments, plus the current version counter of each day.
func (s *PlannerStore) LoadTrip(ctx context.Context, tripID itinerary.TripID) (*itinerary.Trip, map[itinerary.DayID]int64, error) {
	var tripRecord TripRecord
	err := s.db.WithContext(ctx).Where("trip_id = ?", tripID.String()).Take(&tripRecord).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTripNotFound, tripID)
	}
	if err != nil {
		return nil, nil, err
	}

	var dayRecords []DayRecord
	if err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID.String()).
		Order("position ASC").
		Find(&dayRecords).Error; err != nil {
		return nil, nil, err
	}

	trip := &itinerary.Trip{
		ID:    tripID,
		Title: tripRecord.Title,
		Days:  make([]*itinerary.Day, 0, len(dayRecords)),
	}
	versions := make(map[itinerary.DayID]int64, len(dayRecords))

	for _, dayRecord := range dayRecords {
		day := &itinerary.Day{
			ID:     itinerary.DayID(dayRecord.DayID),
			TripID: tripID,
			Date:   dayRecord.Date,
			Blocks: []*itinerary.Block{},
		}
		versions[day.ID] = dayRecord.Version

		var blockRecords []BlockRecord
		if err := s.db.WithContext(ctx).
			Where("day_id = ?", dayRecord.DayID).
			Order("position ASC").
			Find(&blockRecords).Error; err != nil {
			return nil, nil, err
		}
		for _, blockRecord := range blockRecords {
			block, err := recordToBlock(blockRecord)
			if err != nil {
				return nil, nil, err
			}
			if err := s.loadBlockChildren(ctx, block); err != nil {
				return nil, nil, err
			}
			day.Blocks = append(day.Blocks, block)
		}
		trip.Days = append(trip.Days, day)
	}

	return trip, versions, nil
}

func (s *PlannerStore) loadBlockChildren(ctx context.Context, block *itinerary.Block) error {
	var attachmentRecords []AttachmentRecord
	if err := s.db.WithContext(ctx).
		Where("block_id = ?", block.ID.String()).
		Order("position ASC").
		Find(&attachmentRecords).Error; err != nil {
		return err
	}
	for _, record := range attachmentRecords {
		block.Attachments = append(block.Attachments, itinerary.Attachment{
			ID:      record.AttachmentID,
			BlockID: block.ID,
			Label:   record.Label,
			URL:     record.URL,
			Type:    itinerary.AttachmentType(record.Type),
		})
	}

	var commentRecords []CommentRecord
	if err := s.db.WithContext(ctx).
		Where("block_id = ?", block.ID.String()).
		Order("created_at_ms ASC").
		Find(&commentRecords).Error; err != nil {
		return err
	}
	for _, record := range commentRecords {
		block.Comments = append(block.Comments, itinerary.Comment{
			ID:         record.CommentID,
			BlockID:    block.ID,
			AuthorName: record.AuthorName,
			Message:    record.Message,
			CreatedAt:  time.UnixMilli(record.CreatedAtMillis).UTC(),
		})
	}
	return nil
}

func blockToRecord(block *itinerary.Block) (BlockRecord, error) {
	record := BlockRecord{
		BlockID:         block.ID.String(),
		DayID:           block.DayID.String(),
		Position:        block.Position,
		Kind:            string(block.Kind),
		Title:           block.Title,
		TimeOfDay:       block.Time.String(),
		DurationMinutes: block.DurationMinutes,
		Description:     block.Description,
		Notes:           block.Notes,
	}
	if block.Coordinates != nil {
		lat := block.Coordinates.Latitude
		lon := block.Coordinates.Longitude
		record.Latitude = &lat
		record.Longitude = &lon
	}

	var details any
	switch block.Kind {
	case itinerary.BlockKindFlight:
		details = block.Flight
	case itinerary.BlockKindHotel:
		details = block.Hotel
	case itinerary.BlockKindActivity:
		details = block.Place
	}
	if details != nil {
		encoded, err := json.Marshal(details)
		if err != nil {
			return BlockRecord{}, fmt.Errorf("storage: encode block details: %w", err)
		}
		record.DetailsJSON = string(encoded)
	}
	return record, nil
}

func recordToBlock(record BlockRecord) (*itinerary.Block, error) {
	kind, err := itinerary.ParseBlockKind(record.Kind)
	if err != nil {
		return nil, err
	}
	block := &itinerary.Block{
		ID:              itinerary.BlockID(record.BlockID),
		DayID:           itinerary.DayID(record.DayID),
		Position:        record.Position,
		Kind:            kind,
		Title:           record.Title,
		DurationMinutes: record.DurationMinutes,
		Description:     record.Description,
		Notes:           record.Notes,
		Attachments:     []itinerary.Attachment{},
		Comments:        []itinerary.Comment{},
	}
	if record.TimeOfDay != "" {
		clockTime, err := itinerary.NewClockTime(record.TimeOfDay)
		if err != nil {
			return nil, err
		}
		block.Time = clockTime
	}
	if record.Latitude != nil && record.Longitude != nil {
		block.Coordinates = &itinerary.Coordinates{
			Latitude:  *record.Latitude,
			Longitude: *record.Longitude,
		}
	}
	if record.DetailsJSON != "" {
		switch kind {
		case itinerary.BlockKindFlight:
			details := &itinerary.FlightDetails{}
			if err := json.Unmarshal([]byte(record.DetailsJSON), details); err != nil {
				return nil, fmt.Errorf("storage: decode flight details: %w", err)
			}
			block.Flight = details
		case itinerary.BlockKindHotel:
			details := &itinerary.HotelDetails{}
			if err := json.Unmarshal([]byte(record.DetailsJSON), details); err != nil {
				return nil, fmt.Errorf("storage: decode hotel details: %w", err)
			}
			block.Hotel = details
		case itinerary.BlockKindActivity:
			details := &itinerary.PlaceDetails{}
			if err := json.Unmarshal([]byte(record.DetailsJSON), details); err != nil {
				return nil, fmt.Errorf("storage: decode place details: %w", err)
			}
			block.Place = details
		}
	}
	return block, nil
}

func (s *PlannerStore) logError(reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{zap.String("reason", reason), zap.Error(err)}
	attrs = append(attrs, fields...)
	s.logger.Error("planner store error", attrs...)
}
