package itinerary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BlockKind enumerates the supported scheduled item variants.
type BlockKind string

const (
	// BlockKindActivity is a place visit or generic scheduled activity.
	BlockKindActivity BlockKind = "activity"
	// BlockKindFlight is a flight segment; excluded from the grouped feed.
	BlockKindFlight BlockKind = "flight"
	// BlockKindHotel is a hotel stay.
	BlockKindHotel BlockKind = "hotel"
	// BlockKindNote is a freeform note pinned into the day.
	BlockKindNote BlockKind = "note"
)

// AttachmentType enumerates attachment payload variants.
type AttachmentType string

const (
	AttachmentTypeLink AttachmentType = "link"
	AttachmentTypeFile AttachmentType = "file"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidTripID indicates that a trip identifier is empty or exceeds storage bounds.
	ErrInvalidTripID = errors.New("itinerary: invalid trip id")
	// ErrInvalidDayID indicates that a day identifier is empty or exceeds storage bounds.
	ErrInvalidDayID = errors.New("itinerary: invalid day id")
	// ErrInvalidBlockID indicates that a block identifier is empty or exceeds storage bounds.
	ErrInvalidBlockID = errors.New("itinerary: invalid block id")
	// ErrInvalidBlockKind indicates an unknown block kind.
	ErrInvalidBlockKind = errors.New("itinerary: invalid block kind")
	// ErrInvalidClockTime indicates a time-of-day string that is not HH:MM.
	ErrInvalidClockTime = errors.New("itinerary: invalid clock time")

	// ErrDayNotFound indicates an operation against a day id absent from the trip.
	ErrDayNotFound = errors.New("itinerary: day not found")
	// ErrBlockNotFound indicates an operation against a block id absent from the day.
	ErrBlockNotFound = errors.New("itinerary: block not found")
	// ErrAttachmentNotFound indicates removal of an attachment id absent from the block.
	ErrAttachmentNotFound = errors.New("itinerary: attachment not found")
	// ErrInvalidIndex indicates an out-of-range insert target.
	ErrInvalidIndex = errors.New("itinerary: invalid index")
)

// TripID represents a validated trip identifier.
type TripID string

// NewTripID validates raw input and returns a TripID.
func NewTripID(rawInput string) (TripID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTripID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidTripID, maxIdentifierLength)
	}
	return TripID(trimmed), nil
}

// String returns the underlying string identifier.
func (id TripID) String() string {
	return string(id)
}

// DayID represents a validated day identifier.
type DayID string

// NewDayID validates raw input and returns a DayID.
func NewDayID(rawInput string) (DayID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDayID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDayID, maxIdentifierLength)
	}
	return DayID(trimmed), nil
}

// String returns the underlying string identifier.
func (id DayID) String() string {
	return string(id)
}

// BlockID represents a validated block identifier.
type BlockID string

// NewBlockID validates raw input and returns a BlockID.
func NewBlockID(rawInput string) (BlockID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidBlockID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidBlockID, maxIdentifierLength)
	}
	return BlockID(trimmed), nil
}

// String returns the underlying string identifier.
func (id BlockID) String() string {
	return string(id)
}

// ParseBlockKind validates a raw kind string.
func ParseBlockKind(value string) (BlockKind, error) {
	switch BlockKind(strings.ToLower(strings.TrimSpace(value))) {
	case BlockKindActivity:
		return BlockKindActivity, nil
	case BlockKindFlight:
		return BlockKindFlight, nil
	case BlockKindHotel:
		return BlockKindHotel, nil
	case BlockKindNote:
		return BlockKindNote, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBlockKind, value)
	}
}

// ClockTime is a validated HH:MM time of day. The zero value means "unset".
type ClockTime struct {
	hour   int
	minute int
	set    bool
}

// NewClockTime parses an HH:MM string.
func NewClockTime(raw string) (ClockTime, error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	return ClockTime{hour: hour, minute: minute, set: true}, nil
}

// IsSet reports whether the block has a scheduled time.
func (t ClockTime) IsSet() bool {
	return t.set
}

// Hour returns the hour component; zero when unset.
func (t ClockTime) Hour() int {
	return t.hour
}

// Minute returns the minute component; zero when unset.
func (t ClockTime) Minute() int {
	return t.minute
}

// String renders HH:MM, or the empty string when unset.
func (t ClockTime) String() string {
	if !t.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// Coordinates is a denormalized lat/lon pair carried on place-backed blocks
// so proximity lookups never have to dereference the destination record.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// FlightDetails carries the flight-variant fields.
type FlightDetails struct {
	Airline          string `json:"airline"`
	FlightNumber     string `json:"flight_number"`
	DepartureAirport string `json:"departure_airport,omitempty"`
	ArrivalAirport   string `json:"arrival_airport,omitempty"`
}

// HotelDetails carries the hotel-variant fields.
type HotelDetails struct {
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
}

// PlaceDetails carries the place-variant fields for activity blocks.
type PlaceDetails struct {
	DestinationRef string `json:"destination_ref,omitempty"`
	Category       string `json:"category,omitempty"`
}

// Attachment is a link or file pinned to a block. Owned by the block; added
// and removed only through it.
type Attachment struct {
	ID      string
	BlockID BlockID
	Label   string
	URL     string
	Type    AttachmentType
}

// Comment is an append-only annotation on a block. CreatedAt is assigned at
// creation and never mutated.
type Comment struct {
	ID         string
	BlockID    BlockID
	AuthorName string
	Message    string
	CreatedAt  time.Time
}

// Block is a single scheduled item within a day. Exactly one of the variant
// detail pointers matching Kind may be set; the rest stay nil.
type Block struct {
	ID              BlockID
	DayID           DayID
	Position        int
	Kind            BlockKind
	Title           string
	Time            ClockTime
	DurationMinutes int
	Description     string
	Notes           string
	Coordinates     *Coordinates
	Flight          *FlightDetails
	Hotel           *HotelDetails
	Place           *PlaceDetails
	Attachments     []Attachment
	Comments        []Comment
}

// Clone returns a deep copy of the block, detached from the live day.
func (b *Block) Clone() *Block {
	cloned := *b
	if b.Coordinates != nil {
		coordinates := *b.Coordinates
		cloned.Coordinates = &coordinates
	}
	if b.Flight != nil {
		flight := *b.Flight
		cloned.Flight = &flight
	}
	if b.Hotel != nil {
		hotel := *b.Hotel
		cloned.Hotel = &hotel
	}
	if b.Place != nil {
		place := *b.Place
		cloned.Place = &place
	}
	cloned.Attachments = append([]Attachment(nil), b.Attachments...)
	cloned.Comments = append([]Comment(nil), b.Comments...)
	return &cloned
}

// Day is an ordered container of blocks, optionally bound to a calendar date.
// Blocks is the order sequence: position i holds the block at index i, dense,
// no gaps, each block exactly once.
type Day struct {
	ID     DayID
	TripID TripID
	Date   string // YYYY-MM-DD, empty for an unscheduled placeholder day
	Blocks []*Block
}

// BlockIDs returns the day's ordered block id sequence.
func (d *Day) BlockIDs() []BlockID {
	ids := make([]BlockID, 0, len(d.Blocks))
	for _, block := range d.Blocks {
		ids = append(ids, block.ID)
	}
	return ids
}

// indexOf returns the position of blockID in the order sequence, or -1.
func (d *Day) indexOf(blockID BlockID) int {
	for i, block := range d.Blocks {
		if block.ID == blockID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the day. The copy shares nothing with the
// original; mutating either side never shows through on the other.
func (d *Day) Clone() *Day {
	cloned := &Day{
		ID:     d.ID,
		TripID: d.TripID,
		Date:   d.Date,
		Blocks: make([]*Block, 0, len(d.Blocks)),
	}
	for _, block := range d.Blocks {
		cloned.Blocks = append(cloned.Blocks, block.Clone())
	}
	return cloned
}

// Trip owns an ordered sequence of days.
type Trip struct {
	ID    TripID
	Title string
	Days  []*Day
}

// DayByID returns the day with the given id, or nil.
func (t *Trip) DayByID(dayID DayID) *Day {
	for _, day := range t.Days {
		if day.ID == dayID {
			return day
		}
	}
	return nil
}

// Clone returns a deep copy of the trip and everything it owns.
func (t *Trip) Clone() *Trip {
	cloned := &Trip{
		ID:    t.ID,
		Title: t.Title,
		Days:  make([]*Day, 0, len(t.Days)),
	}
	for _, day := range t.Days {
		cloned.Days = append(cloned.Days, day.Clone())
	}
	return cloned
}

// BlockDraft describes the caller-supplied fields of a new block.
type BlockDraft struct {
	Kind            BlockKind
	Title           string
	Time            ClockTime
	DurationMinutes int
	Description     string
	Notes           string
	Coordinates     *Coordinates
	Flight          *FlightDetails
	Hotel           *HotelDetails
	Place           *PlaceDetails
}

// BlockPatch carries the optional field updates for UpdateBlock. Nil fields
// are left untouched; order is never altered by a patch.
type BlockPatch struct {
	Title           *string
	Time            *ClockTime
	DurationMinutes *int
	Description     *string
	Notes           *string
	Coordinates     *Coordinates
	Flight          *FlightDetails
	Hotel           *HotelDetails
	Place           *PlaceDetails
}
