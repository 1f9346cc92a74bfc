package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation results recorded by the cart and wishlist counters.
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics holds the storefront collectors. A nil *Metrics records nothing.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	cartOps       *prometheus.CounterVec
	cartConflicts prometheus.Counter
	wishlistOps   *prometheus.CounterVec
}

// New registers the collectors with registerer, falling back to the default registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		httpRequests: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests handled",
		}, []string{"method", "route", "status"})),
		httpDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"})),
		cartOps: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Total number of cart operations by outcome",
		}, []string{"op", "result"})),
		cartConflicts: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts on cart writes",
		})),
		wishlistOps: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_wishlist_operations_total",
			Help: "Total number of wishlist operations by outcome",
		}, []string{"op", "result"})),
	}
}

// register returns the already registered collector when one with the same
// descriptor exists, so New can be called more than once per registry.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CartOperation(op, result string) {
	if m == nil {
		return
	}
	m.cartOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) CartConflict() {
	if m == nil {
		return
	}
	m.cartConflicts.Inc()
}

func (m *Metrics) WishlistOperation(op, result string) {
	if m == nil {
		return
	}
	m.wishlistOps.WithLabelValues(op, result).Inc()
}
