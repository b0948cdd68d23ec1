package geo

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/nool-retail/backend-nool/internal/obs"
)

const (
	earthRadiusKm = 6371

	// DefaultRoadFactor scales great-circle distance to approximate real
	// road distance when the routing service is unavailable.
	DefaultRoadFactor = 1.4
)

// GeocodeFunc is satisfied by *Chain and by single providers.
type GeocodeFunc interface {
	Geocode(ctx context.Context, place string) (Location, error)
}

// DistanceResolver turns two place names into a road distance in kilometers.
// Routing failures degrade to scaled great-circle distance; only a geocoding
// failure makes it return an error.
type DistanceResolver struct {
	Geocoder   GeocodeFunc
	Router     Router
	RoadFactor float64
}

// NewDistanceResolver wires the resolver with the default road factor when
// factor is not positive.
func NewDistanceResolver(geocoder GeocodeFunc, router Router, factor float64) *DistanceResolver {
	if factor <= 0 {
		factor = DefaultRoadFactor
	}
	return &DistanceResolver{Geocoder: geocoder, Router: router, RoadFactor: factor}
}

// RoadDistanceKm geocodes both places concurrently, then asks the routing
// service for driving distance. ErrLocationNotFound from either geocode
// propagates to the caller.
func (r *DistanceResolver) RoadDistanceKm(ctx context.Context, origin, destination string) (float64, error) {
	type geocodeResult struct {
		loc Location
		err error
	}
	fromCh := make(chan geocodeResult, 1)
	go func() {
		loc, err := r.Geocoder.Geocode(ctx, origin)
		fromCh <- geocodeResult{loc, err}
	}()
	to, err := r.Geocoder.Geocode(ctx, destination)
	from := <-fromCh
	if from.err != nil {
		return 0, from.err
	}
	if err != nil {
		return 0, err
	}

	if r.Router != nil {
		km, routeErr := r.Router.RoadKm(ctx, from.loc.Point, to.Point)
		if routeErr == nil {
			return km, nil
		}
		zerolog.Ctx(ctx).Warn().
			Err(routeErr).
			Str("origin", origin).
			Str("destination", destination).
			Msg("routing failed, using haversine fallback")
	}
	if obs.RoutingFallbackTotal != nil {
		obs.RoutingFallbackTotal.Inc()
	}
	return HaversineKm(from.loc.Point, to.Point) * r.RoadFactor, nil
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
