package places

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/geo"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/nearby"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/storage"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	dsn := fmt.Sprintf("file:places_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&storage.PlaceRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	catalog, err := NewCatalog(CatalogConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct catalog: %v", err)
	}
	return catalog
}

func seedPlace(t *testing.T, catalog *Catalog, id, category string, lat, lon float64) {
	t.Helper()
	err := catalog.Upsert(context.Background(), nearby.Place{
		ID:        id,
		Name:      "Place " + id,
		Category:  category,
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		t.Fatalf("failed to seed place %s: %v", id, err)
	}
}

func TestQueryPlacesInBoundingBoxFiltersByRegion(t *testing.T) {
	catalog := newTestCatalog(t)
	seedPlace(t, catalog, "inside", "cafe", 48.858, 2.294)
	seedPlace(t, catalog, "north-of-box", "cafe", 48.900, 2.294)
	seedPlace(t, catalog, "west-of-box", "cafe", 48.858, 2.100)

	box := geo.BoundingBox{
		MinLatitude:  48.850,
		MaxLatitude:  48.870,
		MinLongitude: 2.280,
		MaxLongitude: 2.310,
	}
	places, err := catalog.QueryPlacesInBoundingBox(context.Background(), box, "")
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(places) != 1 || places[0].ID != "inside" {
		t.Fatalf("expected only the in-box place, got %+v", places)
	}
	if places[0].Name != "Place inside" {
		t.Fatalf("place fields lost: %+v", places[0])
	}
}

func TestQueryPlacesInBoundingBoxCategoryFilter(t *testing.T) {
	catalog := newTestCatalog(t)
	seedPlace(t, catalog, "cafe-1", "cafe", 48.858, 2.294)
	seedPlace(t, catalog, "museum-1", "museum", 48.859, 2.295)

	box := geo.BoundingBox{MinLatitude: 48.85, MaxLatitude: 48.87, MinLongitude: 2.28, MaxLongitude: 2.31}
	places, err := catalog.QueryPlacesInBoundingBox(context.Background(), box, "museum")
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(places) != 1 || places[0].ID != "museum-1" {
		t.Fatalf("category filter failed, got %+v", places)
	}
}

func TestUpsertOverwritesExistingEntry(t *testing.T) {
	catalog := newTestCatalog(t)
	seedPlace(t, catalog, "p-1", "cafe", 48.858, 2.294)
	err := catalog.Upsert(context.Background(), nearby.Place{
		ID:       "p-1",
		Name:     "Renamed",
		Category: "bar",
		Latitude: 48.858, Longitude: 2.294,
	})
	if err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}

	box := geo.BoundingBox{MinLatitude: 48.85, MaxLatitude: 48.87, MinLongitude: 2.28, MaxLongitude: 2.31}
	places, err := catalog.QueryPlacesInBoundingBox(context.Background(), box, "bar")
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(places) != 1 || places[0].Name != "Renamed" {
		t.Fatalf("upsert did not overwrite, got %+v", places)
	}
}

func TestUpsertRejectsInvalidPlace(t *testing.T) {
	catalog := newTestCatalog(t)
	err := catalog.Upsert(context.Background(), nearby.Place{ID: "", Name: "no id"})
	if !errors.Is(err, ErrInvalidPlace) {
		t.Fatalf("expected ErrInvalidPlace, got %v", err)
	}
}
