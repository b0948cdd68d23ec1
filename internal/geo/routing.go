package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nool-retail/backend-nool/internal/resilience"
)

// Router returns the driving distance in kilometers between two points.
type Router interface {
	RoadKm(ctx context.Context, from, to Point) (float64, error)
}

// OSRM queries an OSRM-compatible routing service for driving distance.
type OSRM struct {
	BaseURL string
	HTTP    *resilience.HTTPClient
}

// NewOSRM builds the routing client.
func NewOSRM(baseURL string, client *resilience.HTTPClient) *OSRM {
	return &OSRM{BaseURL: baseURL, HTTP: client}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// RoadKm fetches the best driving route and converts its distance to km.
func (o *OSRM) RoadKm(ctx context.Context, from, to Point) (float64, error) {
	// OSRM coordinates are lon,lat pairs
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		o.BaseURL, from.Lon, from.Lat, to.Lon, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("osrm: build request: %w", err)
	}

	resp, err := o.HTTP.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("osrm: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm: status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("osrm: decode response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, fmt.Errorf("osrm: no route (code %q)", body.Code)
	}
	return body.Routes[0].Distance / 1000, nil
}
