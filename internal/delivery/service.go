package delivery

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/geo"
	"github.com/nool-retail/backend-nool/internal/obs"
)

// Quote is the delivery charge computed for one destination and subtotal.
// DistanceKm is nil for same-city destinations and for degraded quotes.
type Quote struct {
	City       string          `json:"city"`
	DistanceKm *float64        `json:"distance_km"`
	Charge     decimal.Decimal `json:"charge"`
	Degraded   bool            `json:"degraded"`
}

// DistanceFunc resolves a road distance between two place names.
type DistanceFunc interface {
	RoadDistanceKm(ctx context.Context, origin, destination string) (float64, error)
}

// Service computes delivery quotes. A geocoding or routing failure never
// fails the quote; it degrades to zero charge so checkout can proceed.
type Service struct {
	OriginCity string
	Distances  DistanceFunc
	Tiers      TierTable
	FreeAbove  float64

	Redis    *redis.Client
	CacheTTL time.Duration

	originToken string
}

// NewService wires a delivery quote service for the given origin city.
func NewService(originCity string, distances DistanceFunc, tiers TierTable, freeAbove float64) *Service {
	token, _ := geo.NormalizeCity(originCity)
	return &Service{
		OriginCity:  originCity,
		Distances:   distances,
		Tiers:       tiers,
		FreeAbove:   freeAbove,
		originToken: token,
	}
}

// Quote prices delivery to the given city for an order subtotal.
func (s *Service) Quote(ctx context.Context, city string, subtotal decimal.Decimal) Quote {
	token, ok := geo.NormalizeCity(city)
	if !ok {
		s.count("degraded")
		return Quote{City: city, Charge: decimal.Zero, Degraded: true}
	}
	display := geo.DisplayCity(token)

	if token == s.originToken {
		s.count("same_city")
		return Quote{City: display, Charge: s.Tiers.ChargeFor(subtotal, 0, s.FreeAbove)}
	}

	km, err := s.distanceTo(ctx, token)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Str("city", display).
			Err(err).
			Msg("delivery quote degraded, charging zero")
		s.count("degraded")
		return Quote{City: display, Charge: decimal.Zero, Degraded: true}
	}

	s.count("ok")
	return Quote{
		City:       display,
		DistanceKm: &km,
		Charge:     s.Tiers.ChargeFor(subtotal, km, s.FreeAbove),
	}
}

// distanceTo returns the cached road distance for a city token, resolving and
// caching on miss. Distance is a property of the city pair, so subtotal does
// not participate in the key.
func (s *Service) distanceTo(ctx context.Context, token string) (float64, error) {
	key := "delivery:dist:" + s.originToken + ":" + token
	if s.Redis != nil {
		if v, err := s.Redis.Get(ctx, key).Result(); err == nil {
			if km, perr := strconv.ParseFloat(v, 64); perr == nil {
				return km, nil
			}
		}
	}

	km, err := s.Distances.RoadDistanceKm(ctx, s.OriginCity, token)
	if err != nil {
		return 0, err
	}
	if s.Redis != nil {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = 15 * time.Minute
		}
		_ = s.Redis.Set(ctx, key, strconv.FormatFloat(km, 'f', -1, 64), ttl).Err()
	}
	return km, nil
}

func (s *Service) count(outcome string) {
	if obs.DeliveryQuotesTotal != nil {
		obs.DeliveryQuotesTotal.WithLabelValues(outcome).Inc()
	}
}
