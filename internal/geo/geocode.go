package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nool-retail/backend-nool/internal/obs"
)

// ErrLocationNotFound means no provider in the chain could resolve the place.
// It is terminal for that address and not worth retrying.
var ErrLocationNotFound = errors.New("geo: location not found")

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a geocoding result.
type Location struct {
	Point       Point   `json:"point"`
	DisplayName string  `json:"display_name"`
	Confidence  float64 `json:"confidence"`
}

// Geocoder resolves a place name to coordinates. Implementations receive the
// raw place text and are expected to scope results to their configured country.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, place string) (Location, error)
}

// Chain tries each provider in order and returns the first hit. Transport
// errors, non-2xx responses and empty result sets all advance to the next
// tier; an exhausted chain returns ErrLocationNotFound.
type Chain struct {
	Providers []Geocoder
}

// NewChain builds a provider chain in the given priority order.
func NewChain(providers ...Geocoder) *Chain {
	return &Chain{Providers: providers}
}

// Geocode walks the provider tiers for the given place.
func (c *Chain) Geocode(ctx context.Context, place string) (Location, error) {
	for _, p := range c.Providers {
		loc, err := p.Geocode(ctx, place)
		if err == nil {
			if obs.GeocodeRequestsTotal != nil {
				obs.GeocodeRequestsTotal.WithLabelValues(p.Name(), "hit").Inc()
			}
			return loc, nil
		}
		if obs.GeocodeRequestsTotal != nil {
			obs.GeocodeRequestsTotal.WithLabelValues(p.Name(), "miss").Inc()
		}
		zerolog.Ctx(ctx).Debug().
			Str("provider", p.Name()).
			Str("place", place).
			Err(err).
			Msg("geocode tier missed, trying next")
	}
	return Location{}, fmt.Errorf("%w: %q", ErrLocationNotFound, place)
}
