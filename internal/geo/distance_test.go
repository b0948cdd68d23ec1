package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	points map[string]Point
}

func (s *stubGeocoder) Geocode(_ context.Context, place string) (Location, error) {
	p, ok := s.points[place]
	if !ok {
		return Location{}, ErrLocationNotFound
	}
	return Location{Point: p, DisplayName: place}, nil
}

type stubRouter struct {
	km  float64
	err error
}

func (s *stubRouter) RoadKm(context.Context, Point, Point) (float64, error) {
	return s.km, s.err
}

var (
	tirupur    = Point{Lat: 11.1085, Lon: 77.3411}
	coimbatore = Point{Lat: 11.0168, Lon: 76.9558}
)

func TestHaversineKnownDistance(t *testing.T) {
	t.Parallel()
	// Tirupur to Coimbatore is roughly 43 km great-circle.
	d := HaversineKm(tirupur, coimbatore)
	require.InDelta(t, 43.2, d, 1.0)
	require.InDelta(t, d, HaversineKm(coimbatore, tirupur), 1e-9)
	require.Zero(t, HaversineKm(tirupur, tirupur))
}

func TestRoadDistancePrefersRouter(t *testing.T) {
	t.Parallel()
	r := NewDistanceResolver(
		&stubGeocoder{points: map[string]Point{"Tirupur": tirupur, "Coimbatore": coimbatore}},
		&stubRouter{km: 52.7},
		0,
	)
	km, err := r.RoadDistanceKm(context.Background(), "Tirupur", "Coimbatore")
	require.NoError(t, err)
	require.InDelta(t, 52.7, km, 1e-9)
}

func TestRoadDistanceHaversineFallback(t *testing.T) {
	t.Parallel()
	r := NewDistanceResolver(
		&stubGeocoder{points: map[string]Point{"Tirupur": tirupur, "Coimbatore": coimbatore}},
		&stubRouter{err: errors.New("routing down")},
		0,
	)
	km, err := r.RoadDistanceKm(context.Background(), "Tirupur", "Coimbatore")
	require.NoError(t, err)
	want := HaversineKm(tirupur, coimbatore) * DefaultRoadFactor
	require.InDelta(t, want, km, 1e-9)
}

func TestRoadDistanceNoRouterConfigured(t *testing.T) {
	t.Parallel()
	r := NewDistanceResolver(
		&stubGeocoder{points: map[string]Point{"Tirupur": tirupur, "Coimbatore": coimbatore}},
		nil,
		2.0,
	)
	km, err := r.RoadDistanceKm(context.Background(), "Tirupur", "Coimbatore")
	require.NoError(t, err)
	require.InDelta(t, HaversineKm(tirupur, coimbatore)*2.0, km, 1e-9)
}

func TestRoadDistanceGeocodeFailure(t *testing.T) {
	t.Parallel()
	r := NewDistanceResolver(
		&stubGeocoder{points: map[string]Point{"Tirupur": tirupur}},
		&stubRouter{km: 10},
		0,
	)
	_, err := r.RoadDistanceKm(context.Background(), "Tirupur", "Atlantis")
	require.ErrorIs(t, err, ErrLocationNotFound)
}
