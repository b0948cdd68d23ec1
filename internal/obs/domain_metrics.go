package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// AuditOrdersTotal counts validated orders by outcome (valid, drift, error).
	AuditOrdersTotal *prometheus.CounterVec
	// RepairsTotal counts repair attempts by result (repaired, noop, error).
	RepairsTotal *prometheus.CounterVec
	// GeocodeRequestsTotal counts geocoding lookups by provider tier and result.
	GeocodeRequestsTotal *prometheus.CounterVec
	// RoutingFallbackTotal counts road-distance lookups that fell back to the
	// haversine approximation.
	RoutingFallbackTotal prometheus.Counter
	// DeliveryQuotesTotal counts delivery quotes by outcome (ok, same_city, degraded).
	DeliveryQuotesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		AuditOrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_orders_total",
			Help:      "Count of order validations by outcome.",
		}, []string{"outcome"})
		RepairsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_repairs_total",
			Help:      "Count of order repair attempts by result.",
		}, []string{"result"})
		GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Count of geocoding lookups by provider and result.",
		}, []string{"provider", "result"})
		RoutingFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_fallback_total",
			Help:      "Number of road-distance lookups served by the haversine fallback.",
		})
		DeliveryQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_quotes_total",
			Help:      "Count of delivery quotes by outcome.",
		}, []string{"outcome"})

		mustRegisterCollector(reg, AuditOrdersTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AuditOrdersTotal = v
			}
		})
		mustRegisterCollector(reg, RepairsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RepairsTotal = v
			}
		})
		mustRegisterCollector(reg, GeocodeRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GeocodeRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, RoutingFallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RoutingFallbackTotal = v
			}
		})
		mustRegisterCollector(reg, DeliveryQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DeliveryQuotesTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
