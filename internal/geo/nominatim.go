package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nool-retail/backend-nool/internal/resilience"
)

// Nominatim is the primary geocoding tier. Queries are restricted to the
// configured country code so ambiguous city names resolve locally.
type Nominatim struct {
	BaseURL     string
	CountryCode string
	Country     string
	HTTP        *resilience.HTTPClient
}

// NewNominatim builds the primary geocoder.
func NewNominatim(baseURL, countryCode, country string, client *resilience.HTTPClient) *Nominatim {
	return &Nominatim{BaseURL: baseURL, CountryCode: countryCode, Country: country, HTTP: client}
}

// Name identifies the provider in logs and metrics.
func (n *Nominatim) Name() string { return "nominatim" }

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocode resolves a place via the Nominatim search API, returning the best
// single match.
func (n *Nominatim) Geocode(ctx context.Context, place string) (Location, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s, %s", place, n.Country))
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	if n.CountryCode != "" {
		q.Set("countrycodes", n.CountryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Location{}, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.HTTP.Do(ctx, req)
	if err != nil {
		return Location{}, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("nominatim: status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Location{}, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(results) == 0 {
		return Location{}, fmt.Errorf("nominatim: no results for %q", place)
	}

	best := results[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return Location{}, fmt.Errorf("nominatim: parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return Location{}, fmt.Errorf("nominatim: parse lon: %w", err)
	}
	return Location{
		Point:       Point{Lat: lat, Lon: lon},
		DisplayName: best.DisplayName,
		Confidence:  best.Importance,
	}, nil
}
