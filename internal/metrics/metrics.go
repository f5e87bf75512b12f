// Package metrics exposes Prometheus counters for the page host.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the page host collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	renders     *prometheus.CounterVec
	validations *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "Requests handled by the page host",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_seconds",
			Help:      "Request handling time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "page_renders_total",
			Help:      "Pages rendered, by component and response kind",
		}, []string{"component", "kind"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "validation_failures_total",
			Help:      "Form submits rejected with a field error map",
		}, []string{"route"}),
		gatherer: reg,
	}
}

// Middleware records request count and latency per matched route. The
// label values are copied: fasthttp reuses the request buffers once the
// handler returns, and the vectors keep their label strings.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if status == fiber.StatusUnprocessableEntity {
			m.validations.WithLabelValues(route).Inc()
		}
		return err
	}
}

// PageRendered counts one page response; kind is "json" or "html".
func (m *Metrics) PageRendered(component, kind string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(component, kind).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
