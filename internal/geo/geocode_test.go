package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nool-retail/backend-nool/internal/resilience"
)

func testHTTPClient() *resilience.HTTPClient {
	hc := resilience.NewHTTPClient("test", time.Second, nil)
	hc.MaxAttempts = 1
	return hc
}

func TestNominatimGeocode(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "Tirupur, India", r.URL.Query().Get("q"))
		require.Equal(t, "in", r.URL.Query().Get("countrycodes"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"lat":"11.1085","lon":"77.3411","display_name":"Tirupur, Tamil Nadu, India","importance":0.62}]`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "in", "India", testHTTPClient())
	loc, err := n.Geocode(context.Background(), "Tirupur")
	require.NoError(t, err)
	require.InDelta(t, 11.1085, loc.Point.Lat, 1e-9)
	require.InDelta(t, 77.3411, loc.Point.Lon, 1e-9)
	require.Equal(t, "Tirupur, Tamil Nadu, India", loc.DisplayName)
	require.InDelta(t, 0.62, loc.Confidence, 1e-9)
}

func TestNominatimEmptyResults(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "in", "India", testHTTPClient())
	_, err := n.Geocode(context.Background(), "Nowhereville")
	require.Error(t, err)
}

func TestPhotonGeocode(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api", r.URL.Path)
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[77.3411,11.1085]},"properties":{"name":"Tirupur","state":"Tamil Nadu"}}]}`))
	}))
	defer srv.Close()

	p := NewPhoton(srv.URL, "India", testHTTPClient())
	loc, err := p.Geocode(context.Background(), "Tirupur")
	require.NoError(t, err)
	require.InDelta(t, 11.1085, loc.Point.Lat, 1e-9)
	require.InDelta(t, 77.3411, loc.Point.Lon, 1e-9)
	require.Equal(t, "Tirupur, Tamil Nadu", loc.DisplayName)
	require.InDelta(t, photonDefaultConfidence, loc.Confidence, 1e-9)
}

func TestChainFallsBackToSecondTier(t *testing.T) {
	t.Parallel()
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[76.9558,11.0168]},"properties":{"name":"Coimbatore"}}]}`))
	}))
	defer secondary.Close()

	chain := NewChain(
		NewNominatim(primary.URL, "in", "India", testHTTPClient()),
		NewPhoton(secondary.URL, "India", testHTTPClient()),
	)
	loc, err := chain.Geocode(context.Background(), "Coimbatore")
	require.NoError(t, err)
	require.InDelta(t, 11.0168, loc.Point.Lat, 1e-9)
}

func TestChainExhaustedReturnsNotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	chain := NewChain(NewNominatim(srv.URL, "in", "India", testHTTPClient()))
	_, err := chain.Geocode(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrLocationNotFound)
}
