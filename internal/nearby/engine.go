// Package nearby suggests additional stops close to an existing block. The
// feature is advisory: lookup failures degrade to an empty suggestion list.
package nearby

import (
	"context"
	"sort"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/geo"
	"go.uber.org/zap"
)

const (
	// DefaultRadiusKm bounds the search region around the reference block.
	DefaultRadiusKm = 1.0
	// DefaultMinDistanceKm filters out candidates that are effectively the
	// reference place itself (closer than 50 meters).
	DefaultMinDistanceKm = 0.05
	// DefaultLimit caps the returned candidate count.
	DefaultLimit = 5
)

// Place is a candidate record from the place collaborator.
type Place struct {
	ID        string
	Name      string
	Category  string
	Latitude  float64
	Longitude float64
	Thumbnail string
}

// Candidate is a place paired with its great-circle distance from the
// reference coordinates.
type Candidate struct {
	Place      Place
	DistanceKm float64
}

// PlaceSource is the external place collaborator queried per bounding box.
type PlaceSource interface {
	QueryPlacesInBoundingBox(ctx context.Context, box geo.BoundingBox, categoryFilter string) ([]Place, error)
}

// Config carries the engine's tunables. Zero values fall back to the
// defaults above.
type Config struct {
	RadiusKm      float64
	MinDistanceKm float64
	Limit         int
}

// Query narrows a single lookup. Zero values inherit the engine config.
type Query struct {
	RadiusKm       float64
	Limit          int
	CategoryFilter string
	ExcludeIDs     []string
}

// Engine ranks nearby places for a reference point.
type Engine struct {
	source PlaceSource
	cfg    Config
	logger *zap.Logger
}

// NewEngine builds an engine over the given place source.
func NewEngine(source PlaceSource, cfg Config, logger *zap.Logger) *Engine {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = DefaultRadiusKm
	}
	if cfg.MinDistanceKm <= 0 {
		cfg.MinDistanceKm = DefaultMinDistanceKm
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, cfg: cfg, logger: logger}
}

// FindNearby returns up to limit places within the radius of reference,
// sorted ascending by distance. Candidates closer than the minimum distance
// are treated as the reference place itself and dropped, as is any id in
// ExcludeIDs. A source error is logged and yields an empty result, never an
// error: suggestions are non-critical.
func (e *Engine) FindNearby(ctx context.Context, reference geo.Coordinates, query Query) []Candidate {
	radiusKm := query.RadiusKm
	if radiusKm <= 0 {
		radiusKm = e.cfg.RadiusKm
	}
	limit := query.Limit
	if limit <= 0 {
		limit = e.cfg.Limit
	}

	box := geo.BoundingBoxAround(reference, radiusKm)
	places, err := e.source.QueryPlacesInBoundingBox(ctx, box, query.CategoryFilter)
	if err != nil {
		e.logger.Warn("nearby place query failed",
			zap.Float64("lat", reference.Latitude),
			zap.Float64("lon", reference.Longitude),
			zap.Error(err))
		return []Candidate{}
	}

	excluded := make(map[string]struct{}, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	candidates := make([]Candidate, 0, len(places))
	for _, place := range places {
		if _, ok := excluded[place.ID]; ok {
			continue
		}
		distanceKm := geo.HaversineKm(reference, geo.Coordinates{
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
		})
		if distanceKm < e.cfg.MinDistanceKm || distanceKm > radiusKm {
			continue
		}
		candidates = append(candidates, Candidate{Place: place, DistanceKm: distanceKm})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
