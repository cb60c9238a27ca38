package nearby

import (
	"context"
	"errors"
	"testing"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/geo"
)

// Offsets around the reference point; 0.001 degrees latitude is ~111 m.
var reference = geo.Coordinates{Latitude: 48.8584, Longitude: 2.2945}

type staticSource struct {
	places  []Place
	err     error
	lastBox geo.BoundingBox
}

func (s *staticSource) QueryPlacesInBoundingBox(_ context.Context, box geo.BoundingBox, _ string) ([]Place, error) {
	s.lastBox = box
	if s.err != nil {
		return nil, s.err
	}
	return s.places, nil
}

func placeAt(id string, latOffset, lonOffset float64) Place {
	return Place{
		ID:        id,
		Name:      id,
		Latitude:  reference.Latitude + latOffset,
		Longitude: reference.Longitude + lonOffset,
	}
}

func TestFindNearbySortsByDistanceAndTruncates(t *testing.T) {
	source := &staticSource{places: []Place{
		placeAt("far", 0.007, 0),    // ~780 m
		placeAt("near", 0.002, 0),   // ~220 m
		placeAt("middle", 0.004, 0), // ~440 m
	}}
	engine := NewEngine(source, Config{}, nil)

	candidates := engine.FindNearby(context.Background(), reference, Query{Limit: 2})
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Place.ID != "near" || candidates[1].Place.ID != "middle" {
		t.Fatalf("expected ascending distance order, got %s then %s",
			candidates[0].Place.ID, candidates[1].Place.ID)
	}
	if candidates[0].DistanceKm >= candidates[1].DistanceKm {
		t.Fatalf("distances not ascending: %f then %f",
			candidates[0].DistanceKm, candidates[1].DistanceKm)
	}
}

func TestFindNearbyDropsSamePlaceAndOutOfRadius(t *testing.T) {
	source := &staticSource{places: []Place{
		placeAt("same-place", 0.0002, 0), // ~22 m, closer than the 50 m floor
		placeAt("in-range", 0.003, 0),    // ~330 m
		placeAt("too-far", 0.02, 0),      // ~2.2 km, beyond the 1 km default
	}}
	engine := NewEngine(source, Config{}, nil)

	candidates := engine.FindNearby(context.Background(), reference, Query{})
	if len(candidates) != 1 || candidates[0].Place.ID != "in-range" {
		t.Fatalf("expected only in-range candidate, got %d", len(candidates))
	}
	for _, candidate := range candidates {
		if candidate.DistanceKm < DefaultMinDistanceKm || candidate.DistanceKm > DefaultRadiusKm {
			t.Fatalf("candidate %s violates distance bounds: %f km",
				candidate.Place.ID, candidate.DistanceKm)
		}
	}
}

func TestFindNearbyExcludesScheduledIDs(t *testing.T) {
	source := &staticSource{places: []Place{
		placeAt("scheduled", 0.002, 0),
		placeAt("fresh", 0.003, 0),
	}}
	engine := NewEngine(source, Config{}, nil)

	candidates := engine.FindNearby(context.Background(), reference, Query{
		ExcludeIDs: []string{"scheduled"},
	})
	if len(candidates) != 1 || candidates[0].Place.ID != "fresh" {
		t.Fatalf("excluded id leaked into candidates: %+v", candidates)
	}
}

func TestFindNearbyWiderRadiusQuery(t *testing.T) {
	source := &staticSource{places: []Place{
		placeAt("two-km-out", 0.018, 0), // ~2 km
	}}
	engine := NewEngine(source, Config{}, nil)

	if got := engine.FindNearby(context.Background(), reference, Query{}); len(got) != 0 {
		t.Fatalf("default radius must drop a 2 km candidate")
	}
	got := engine.FindNearby(context.Background(), reference, Query{RadiusKm: 3})
	if len(got) != 1 {
		t.Fatalf("3 km radius must keep the candidate, got %d", len(got))
	}
	// The bounding box passed to the source widens with the radius.
	if !source.lastBox.Contains(geo.Coordinates{Latitude: reference.Latitude + 0.02, Longitude: reference.Longitude}) {
		t.Fatalf("bounding box did not widen with the requested radius")
	}
}

func TestFindNearbyFailsSoftOnSourceError(t *testing.T) {
	source := &staticSource{err: errors.New("backend unavailable")}
	engine := NewEngine(source, Config{}, nil)

	candidates := engine.FindNearby(context.Background(), reference, Query{})
	if candidates == nil {
		t.Fatalf("soft failure must yield an empty slice, not nil")
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates on source error, got %d", len(candidates))
	}
}

func TestNewEngineAppliesDefaults(t *testing.T) {
	engine := NewEngine(&staticSource{}, Config{}, nil)
	if engine.cfg.RadiusKm != DefaultRadiusKm {
		t.Fatalf("expected default radius, got %f", engine.cfg.RadiusKm)
	}
	if engine.cfg.MinDistanceKm != DefaultMinDistanceKm {
		t.Fatalf("expected default min distance, got %f", engine.cfg.MinDistanceKm)
	}
	if engine.cfg.Limit != DefaultLimit {
		t.Fatalf("expected default limit, got %d", engine.cfg.Limit)
	}
}
