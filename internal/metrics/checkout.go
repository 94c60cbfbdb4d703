package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout holds the Prometheus collectors for checkout-session building.
// A nil *Checkout records nothing.
type Checkout struct {
	// outcomes counts finished requests by result code ("OK" on success)
	outcomes *prometheus.CounterVec

	// cache counts cache lookups by result (hit, miss)
	cache *prometheus.CounterVec

	// rateLimited counts requests denied by the rate limiter
	rateLimited prometheus.Counter

	// providerLatency tracks provider round trips by outcome
	providerLatency *prometheus.HistogramVec
}

// NewCheckout registers the checkout collectors with reg.
func NewCheckout(reg prometheus.Registerer) *Checkout {
	f := promauto.With(reg)
	return &Checkout{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_planner_checkout_sessions_total",
			Help: "Checkout session requests by result code",
		}, []string{"code"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_planner_checkout_cache_lookups_total",
			Help: "Checkout session cache lookups by result",
		}, []string{"result"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "meal_planner_checkout_rate_limited_total",
			Help: "Checkout session requests denied by the rate limiter",
		}),
		providerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meal_planner_checkout_provider_duration_seconds",
			Help:    "Checkout provider call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"outcome"}),
	}
}

// Outcome records a finished request.
func (c *Checkout) Outcome(code string) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(code).Inc()
}

// CacheLookup records a cache hit or miss.
func (c *Checkout) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cache.WithLabelValues(result).Inc()
}

// RateLimited records a rate limiter denial.
func (c *Checkout) RateLimited() {
	if c == nil {
		return
	}
	c.rateLimited.Inc()
}

// ProviderCall records the duration of a provider round trip.
func (c *Checkout) ProviderCall(d time.Duration, outcome string) {
	if c == nil {
		return
	}
	c.providerLatency.WithLabelValues(outcome).Observe(d.Seconds())
}
