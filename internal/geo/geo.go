package geo

import "math"

// EarthRadiusKm is the spherical-earth approximation used for all distance
// math. Good enough for sub-50km proximity lookups, not geodesic-accurate.
const EarthRadiusKm = 6371.0

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// BoundingBox is an axis-aligned region in degrees.
type BoundingBox struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Contains reports whether the point falls inside the box, inclusive.
func (b BoundingBox) Contains(point Coordinates) bool {
	return point.Latitude >= b.MinLatitude && point.Latitude <= b.MaxLatitude &&
		point.Longitude >= b.MinLongitude && point.Longitude <= b.MaxLongitude
}

// HaversineKm returns the great-circle distance between two points in
// kilometers using the haversine formula.
func HaversineKm(from, to Coordinates) float64 {
	latFrom := degreesToRadians(from.Latitude)
	latTo := degreesToRadians(to.Latitude)
	deltaLat := degreesToRadians(to.Latitude - from.Latitude)
	deltaLon := degreesToRadians(to.Longitude - from.Longitude)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	a := sinLat*sinLat + math.Cos(latFrom)*math.Cos(latTo)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BoundingBoxAround approximates the box that covers radiusKm around center.
// Longitude degrees shrink with latitude, so the width is scaled by
// cos(latitude); at the poles the box degenerates to the full longitude range.
func BoundingBoxAround(center Coordinates, radiusKm float64) BoundingBox {
	if radiusKm < 0 {
		radiusKm = 0
	}
	degreesPerKmLat := 1.0 / (EarthRadiusKm * math.Pi / 180.0)
	latDelta := radiusKm * degreesPerKmLat

	cosLat := math.Cos(degreesToRadians(center.Latitude))
	lonDelta := 180.0
	if cosLat > 1e-9 {
		lonDelta = radiusKm * degreesPerKmLat / cosLat
	}

	return BoundingBox{
		MinLatitude:  center.Latitude - latDelta,
		MaxLatitude:  center.Latitude + latDelta,
		MinLongitude: center.Longitude - lonDelta,
		MaxLongitude: center.Longitude + lonDelta,
	}
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
