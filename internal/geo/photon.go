package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nool-retail/backend-nool/internal/resilience"
)

// photonDefaultConfidence is assigned to fallback hits since Photon does not
// report a match score.
const photonDefaultConfidence = 0.3

// Photon is the secondary, less precise geocoding tier.
type Photon struct {
	BaseURL string
	Country string
	HTTP    *resilience.HTTPClient
}

// NewPhoton builds the fallback geocoder.
func NewPhoton(baseURL, country string, client *resilience.HTTPClient) *Photon {
	return &Photon{BaseURL: baseURL, Country: country, HTTP: client}
}

// Name identifies the provider in logs and metrics.
func (p *Photon) Name() string { return "photon" }

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves a place via the Photon API. Results use GeoJSON ordering,
// longitude before latitude.
func (p *Photon) Geocode(ctx context.Context, place string) (Location, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s, %s", place, p.Country))
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/api?"+q.Encode(), nil)
	if err != nil {
		return Location{}, fmt.Errorf("photon: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		return Location{}, fmt.Errorf("photon: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("photon: status %d", resp.StatusCode)
	}

	var body photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("photon: decode response: %w", err)
	}
	if len(body.Features) == 0 || len(body.Features[0].Geometry.Coordinates) < 2 {
		return Location{}, fmt.Errorf("photon: no results for %q", place)
	}

	f := body.Features[0]
	display := f.Properties.Name
	if f.Properties.State != "" {
		display += ", " + f.Properties.State
	}
	return Location{
		Point:       Point{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]},
		DisplayName: display,
		Confidence:  photonDefaultConfidence,
	}, nil
}
