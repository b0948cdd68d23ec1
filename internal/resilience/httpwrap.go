package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient wraps a http.Client with a circuit breaker and retry policy for
// one external provider. Retries apply to transport errors and 5xx responses;
// 4xx responses are returned as-is and count as breaker successes.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
}

// NewHTTPClient builds a wrapped client for the named target.
func NewHTTPClient(target string, timeout time.Duration, breaker *Breaker) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Breaker:     breaker,
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
		Jitter:      0.2,
	}
}

// Do executes the request, consulting the breaker before each attempt. The
// request must have a replayable body (GetBody set, or no body at all).
func (hc *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := hc.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if hc.Breaker != nil && !hc.Breaker.Allow(ctx) {
			return nil, ErrOpenCircuit
		}

		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("resilience: replay request body: %w", err)
			}
			r.Body = body
		}

		resp, err := hc.Client.Do(r)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			hc.report(ctx, true)
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("resilience: upstream status %d", resp.StatusCode)
			resp.Body.Close()
		}
		hc.report(ctx, false)

		if attempt == attempts {
			break
		}
		delay := hc.backoff(attempt)
		zerolog.Ctx(ctx).Debug().
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(lastErr).
			Msg("retrying upstream request")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (hc *HTTPClient) report(ctx context.Context, success bool) {
	if hc.Breaker != nil {
		hc.Breaker.Report(ctx, success)
	}
}

func (hc *HTTPClient) backoff(attempt int) time.Duration {
	base := hc.BaseBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << (attempt - 1)
	if hc.Jitter > 0 {
		spread := float64(d) * hc.Jitter
		d += time.Duration(rand.Float64()*2*spread - spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}
