package storage

// Persisted rows for the planner model. Order is a dense position column per
// owning sequence; days additionally carry a monotonic version counter that
// guards order writes against stale sessions.

// TripRecord is the persisted trip row.
type TripRecord struct {
	TripID           string `gorm:"column:trip_id;primaryKey;size:190;not null"`
	Title            string `gorm:"column:title;size:500;not null;default:''"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (TripRecord) TableName() string {
	return "trips"
}

// DayRecord is the persisted day row. Date is empty for an unscheduled
// placeholder day.
type DayRecord struct {
	DayID    string `gorm:"column:day_id;primaryKey;size:190;not null"`
	TripID   string `gorm:"column:trip_id;size:190;not null;index:idx_days_trip_position,priority:1"`
	Date     string `gorm:"column:date;size:10;not null;default:''"`
	Position int    `gorm:"column:position;not null;index:idx_days_trip_position,priority:2"`
	Version  int64  `gorm:"column:version;not null;default:1"`
}

// TableName provides the explicit table binding for GORM.
func (DayRecord) TableName() string {
	return "days"
}

// BlockRecord is the persisted block row. The kind-specific variant fields
// are serialized into details_json keyed by kind, so decoding always knows
// which shape to expect.
type BlockRecord struct {
	BlockID         string   `gorm:"column:block_id;primaryKey;size:190;not null"`
	DayID           string   `gorm:"column:day_id;size:190;not null;index:idx_blocks_day_position,priority:1"`
	Position        int      `gorm:"column:position;not null;index:idx_blocks_day_position,priority:2"`
	Kind            string   `gorm:"column:kind;size:20;not null"`
	Title           string   `gorm:"column:title;size:500;not null;default:''"`
	TimeOfDay       string   `gorm:"column:time_of_day;size:5;not null;default:''"`
	DurationMinutes int      `gorm:"column:duration_minutes;not null;default:0"`
	Description     string   `gorm:"column:description;type:text;not null;default:''"`
	Notes           string   `gorm:"column:notes;type:text;not null;default:''"`
	Latitude        *float64 `gorm:"column:lat"`
	Longitude       *float64 `gorm:"column:lon"`
	DetailsJSON     string   `gorm:"column:details_json;type:text;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (BlockRecord) TableName() string {
	return "blocks"
}

// AttachmentRecord is the persisted attachment row.
type AttachmentRecord struct {
	AttachmentID string `gorm:"column:attachment_id;primaryKey;size:190;not null"`
	BlockID      string `gorm:"column:block_id;size:190;not null;index:idx_attachments_block,priority:1"`
	Position     int    `gorm:"column:position;not null"`
	Label        string `gorm:"column:label;size:500;not null;default:''"`
	URL          string `gorm:"column:url;size:2000;not null;default:''"`
	Type         string `gorm:"column:type;size:10;not null"`
}

// TableName provides the explicit table binding for GORM.
func (AttachmentRecord) TableName() string {
	return "attachments"
}

// CommentRecord is the persisted comment row. Comments are append-only;
// created_at_ms is assigned once and never updated.
type CommentRecord struct {
	CommentID       string `gorm:"column:comment_id;primaryKey;size:190;not null"`
	BlockID         string `gorm:"column:block_id;size:190;not null;index:idx_comments_block_time,priority:1"`
	AuthorName      string `gorm:"column:author_name;size:190;not null;default:''"`
	Message         string `gorm:"column:message;type:text;not null;default:''"`
	CreatedAtMillis int64  `gorm:"column:created_at_ms;not null;index:idx_comments_block_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (CommentRecord) TableName() string {
	return "comments"
}

// PlaceRecord is a catalog row served to the proximity engine.
type PlaceRecord struct {
	PlaceID   string  `gorm:"column:place_id;primaryKey;size:190;not null"`
	Name      string  `gorm:"column:name;size:500;not null"`
	Category  string  `gorm:"column:category;size:100;not null;default:'';index:idx_places_category"`
	Latitude  float64 `gorm:"column:lat;not null;index:idx_places_lat"`
	Longitude float64 `gorm:"column:lon;not null;index:idx_places_lon"`
	Thumbnail string  `gorm:"column:thumbnail;size:2000;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (PlaceRecord) TableName() string {
	return "places"
}
