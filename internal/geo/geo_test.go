package geo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type place struct {
	name string
	at   Point
}

func (p place) Location() Point { return p.at }

func names(ps []place) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.name)
	}
	return out
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name             string
		lat, lng, radius string
		wantQuery        bool
		wantErr          bool
	}{
		{name: "all absent", wantQuery: false},
		{name: "radius absent", lat: "40", lng: "-74", wantQuery: false},
		{name: "valid", lat: "40.0", lng: "-74.0", radius: "10", wantQuery: true},
		{name: "padded", lat: " 40.0 ", lng: "-74.0", radius: "10 ", wantQuery: true},
		{name: "negative radius parses", lat: "0", lng: "0", radius: "-5", wantQuery: true},
		{name: "garbage lat", lat: "north", lng: "-74", radius: "10", wantErr: true},
		{name: "garbage radius", lat: "40", lng: "-74", radius: "10km", wantErr: true},
		{name: "nan", lat: "NaN", lng: "-74", radius: "10", wantErr: true},
		{name: "inf", lat: "40", lng: "-74", radius: "+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.lat, tt.lng, tt.radius)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidQuery))
				assert.Nil(t, q)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, q != nil)
		})
	}
}

func TestParseQueryValues(t *testing.T) {
	q, err := ParseQuery("40.5", "-74.25", "12.5")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, Point{Lat: 40.5, Lng: -74.25}, q.Anchor)
	assert.Equal(t, 12.5, q.RadiusKm)
}

func TestNewBoundingBox(t *testing.T) {
	box := NewBoundingBox(Point{Lat: 0, Lng: 0}, 111)
	assert.InDelta(t, -1.0, box.MinLat, 1e-12)
	assert.InDelta(t, 1.0, box.MaxLat, 1e-12)
	assert.InDelta(t, -1.0, box.MinLng, 1e-12)
	assert.InDelta(t, 1.0, box.MaxLng, 1e-12)

	box = NewBoundingBox(Point{Lat: 60, Lng: 10}, 111)
	// cos(60°) = 0.5, so a degree of longitude is ~55.5 km
	assert.InDelta(t, 2.0, box.MaxLng-10, 1e-9)
	assert.InDelta(t, 1.0, box.MaxLat-60, 1e-12)
}

func TestNewBoundingBoxClampsAtPole(t *testing.T) {
	box := NewBoundingBox(Point{Lat: 90, Lng: 0}, 1)
	assert.False(t, math.IsInf(box.MaxLng, 0))
	assert.False(t, math.IsNaN(box.MaxLng))
	assert.InDelta(t, 1/minKmPerDegreeLng, box.MaxLng, 1e-3)
}

func TestHaversine(t *testing.T) {
	a := Point{Lat: 40.0, Lng: -74.0}
	assert.InDelta(t, 0, Haversine(a, a), 1e-12)
	assert.InDelta(t, 1.112, Haversine(a, Point{Lat: 40.01, Lng: -74.0}), 0.01)
	assert.InDelta(t, 111.19, Haversine(a, Point{Lat: 41.0, Lng: -74.0}), 0.1)
	assert.InDelta(t, Haversine(a, Point{Lat: 41, Lng: -73}), Haversine(Point{Lat: 41, Lng: -73}, a), 1e-9)

	antipode := Haversine(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, antipode, 1e-6)
}

func TestFilterScenario(t *testing.T) {
	events := []place{
		{name: "A", at: Point{Lat: 40.01, Lng: -74.0}},
		{name: "B", at: Point{Lat: 41.0, Lng: -74.0}},
	}

	got := Filter(events, Query{Anchor: Point{Lat: 40.0, Lng: -74.0}, RadiusKm: 10})
	assert.Equal(t, []string{"A"}, names(got))
}

func TestFilterPreservesOrder(t *testing.T) {
	anchor := Point{Lat: 51.5, Lng: -0.12}
	events := []place{
		{name: "newest", at: Point{Lat: 51.51, Lng: -0.12}},
		{name: "far", at: Point{Lat: 48.85, Lng: 2.35}},
		{name: "middle", at: Point{Lat: 51.5, Lng: -0.13}},
		{name: "oldest", at: Point{Lat: 51.49, Lng: -0.11}},
	}

	got := Filter(events, Query{Anchor: anchor, RadiusKm: 5})
	assert.Equal(t, []string{"newest", "middle", "oldest"}, names(got))
}

func TestFilterNegativeRadius(t *testing.T) {
	events := []place{{name: "here", at: Point{Lat: 1, Lng: 1}}}
	got := Filter(events, Query{Anchor: Point{Lat: 1, Lng: 1}, RadiusKm: -1})
	assert.Empty(t, got)
}

func TestFilterZeroRadiusKeepsExactMatch(t *testing.T) {
	events := []place{
		{name: "here", at: Point{Lat: 1, Lng: 1}},
		{name: "near", at: Point{Lat: 1.0001, Lng: 1}},
	}
	got := Filter(events, Query{Anchor: Point{Lat: 1, Lng: 1}, RadiusKm: 0})
	assert.Equal(t, []string{"here"}, names(got))
}

func TestFilterRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		anchor := Point{Lat: rng.Float64()*160 - 80, Lng: rng.Float64()*360 - 180}
		radius := rng.Float64() * 500
		q := Query{Anchor: anchor, RadiusKm: radius}
		box := q.Box()

		items := make([]place, 0, 200)
		for i := 0; i < 200; i++ {
			items = append(items, place{
				name: string(rune('a'+i%26)) + string(rune('0'+i/26)),
				at: Point{
					Lat: anchor.Lat + (rng.Float64()*2-1)*radius/80,
					Lng: anchor.Lng + (rng.Float64()*2-1)*radius/40,
				},
			})
		}

		got := Filter(items, q)
		kept := make(map[string]bool, len(got))
		for _, p := range got {
			kept[p.name] = true
			assert.LessOrEqual(t, Haversine(anchor, p.at), radius)
		}

		lastIdx := -1
		for idx, p := range items {
			inside := box.Contains(p.at) && Haversine(anchor, p.at) <= radius
			assert.Equal(t, inside, kept[p.name], "round %d item %s", round, p.name)
			if kept[p.name] {
				assert.Greater(t, idx, lastIdx)
				lastIdx = idx
			}
		}
	}
}
