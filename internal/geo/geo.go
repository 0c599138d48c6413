// Package geo narrows event candidates to those within a radius of a point.
//
// Filtering runs in two phases: an over-inclusive bounding box built from a
// fixed km-per-degree approximation, then an exact great-circle check.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0
	// KmPerDegreeLat approximates one degree of latitude.
	KmPerDegreeLat = 111.0
	// minKmPerDegreeLng keeps the longitude delta finite near the poles.
	minKmPerDegreeLng = 1e-5
)

// ErrInvalidQuery is returned by ParseQuery when a geo parameter is present
// but is not a finite number.
var ErrInvalidQuery = errors.New("invalid geo query")

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locatable is anything with a position in degrees.
type Locatable interface {
	Location() Point
}

// Query is a radius search around Anchor.
type Query struct {
	Anchor   Point
	RadiusKm float64
}

// ParseQuery builds a Query from raw request values. It returns nil, nil when
// any of the three values is missing, so the caller applies no geo constraint.
// NaN and Inf parse as floats but are rejected with ErrInvalidQuery like any
// other non-number.
func ParseQuery(lat, lng, radius string) (*Query, error) {
	lat, lng, radius = strings.TrimSpace(lat), strings.TrimSpace(lng), strings.TrimSpace(radius)
	if lat == "" || lng == "" || radius == "" {
		return nil, nil
	}

	values := make([]float64, 0, 3)
	for _, raw := range []string{lat, lng, radius} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidQuery, raw)
		}
		values = append(values, v)
	}

	return &Query{
		Anchor:   Point{Lat: values[0], Lng: values[1]},
		RadiusKm: values[2],
	}, nil
}

// BoundingBox is an inclusive lat/lng rectangle.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// NewBoundingBox returns the coarse prefilter box for a radius search.
// A negative radius produces an inverted box that contains nothing.
func NewBoundingBox(anchor Point, radiusKm float64) BoundingBox {
	latDelta := radiusKm / KmPerDegreeLat

	lngKmPerDegree := KmPerDegreeLat * math.Cos(anchor.Lat*math.Pi/180)
	if lngKmPerDegree < minKmPerDegreeLng {
		lngKmPerDegree = minKmPerDegreeLng
	}
	lngDelta := radiusKm / lngKmPerDegree

	return BoundingBox{
		MinLat: anchor.Lat - latDelta,
		MaxLat: anchor.Lat + latDelta,
		MinLng: anchor.Lng - lngDelta,
		MaxLng: anchor.Lng + lngDelta,
	}
}

func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	if h > 1 {
		// rounding near antipodal points
		h = 1
	}

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Box returns the prefilter box for q.
func (q Query) Box() BoundingBox {
	return NewBoundingBox(q.Anchor, q.RadiusKm)
}

// Filter keeps the items within q's radius, preserving input order.
func Filter[T Locatable](items []T, q Query) []T {
	box := q.Box()
	out := make([]T, 0, len(items))
	for _, item := range items {
		p := item.Location()
		if !box.Contains(p) {
			continue
		}
		if Haversine(q.Anchor, p) <= q.RadiusKm {
			out = append(out, item)
		}
	}
	return out
}
