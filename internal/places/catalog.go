// Package places is the place collaborator: a catalog of known places
// queryable by bounding box for the proximity engine.
package places

import (
	"context"
	"errors"
	"strings"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/geo"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/nearby"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	// ErrInvalidPlace rejects catalog entries without an id or name.
	ErrInvalidPlace = errors.New("places: invalid place")
)

// CatalogConfig carries the catalog's collaborators.
type CatalogConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Catalog serves bounding-box place queries from the places table. It
// implements nearby.PlaceSource.
type Catalog struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalog validates configuration and returns a catalog.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{db: cfg.Database, logger: logger}, nil
}

// Upsert writes a catalog entry.
func (c *Catalog) Upsert(ctx context.Context, place nearby.Place) error {
	if strings.TrimSpace(place.ID) == "" || strings.TrimSpace(place.Name) == "" {
		return ErrInvalidPlace
	}
	record := storage.PlaceRecord{
		PlaceID:   place.ID,
		Name:      place.Name,
		Category:  place.Category,
		Latitude:  place.Latitude,
		Longitude: place.Longitude,
		Thumbnail: place.Thumbnail,
	}
	return c.db.WithContext(ctx).Save(&record).Error
}

// QueryPlacesInBoundingBox returns catalog entries inside the box, optionally
// narrowed to one category.
func (c *Catalog) QueryPlacesInBoundingBox(ctx context.Context, box geo.BoundingBox, categoryFilter string) ([]nearby.Place, error) {
	query := c.db.WithContext(ctx).
		Where("lat >= ? AND lat <= ?", box.MinLatitude, box.MaxLatitude).
		Where("lon >= ? AND lon <= ?", box.MinLongitude, box.MaxLongitude)
	if filter := strings.TrimSpace(categoryFilter); filter != "" {
		query = query.Where("category = ?", filter)
	}

	var records []storage.PlaceRecord
	if err := query.Order("place_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	places := make([]nearby.Place, 0, len(records))
	for _, record := range records {
		places = append(places, nearby.Place{
			ID:        record.PlaceID,
			Name:      record.Name,
			Category:  record.Category,
			Latitude:  record.Latitude,
			Longitude: record.Longitude,
			Thumbnail: record.Thumbnail,
		})
	}
	return places, nil
}
