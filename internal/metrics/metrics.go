package metrics

import (
	"errors"
	"strconv"
	"time"

	"conseilweb/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this package. A private registry keeps
// repeated app construction in tests from tripping duplicate registration.
var Registry = prometheus.NewRegistry()

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conseilweb_http_requests_total",
			Help: "Total HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conseilweb_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conseilweb_http_active_requests",
			Help: "Requests currently being served",
		},
	)
	RedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conseilweb_redirects_total",
			Help: "Redirects served by source pattern and status code",
		},
		[]string{"source", "status"},
	)
	ImageRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conseilweb_image_requests_total",
			Help: "Image endpoint requests by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		RequestsTotal,
		RequestDuration,
		ActiveRequests,
		RedirectsTotal,
		ImageRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Middleware records every request, including one whose handler panics: the
// panic is accounted as a 500 and re-raised for the recover middleware.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		ActiveRequests.Inc()
		start := time.Now()

		defer func() {
			ActiveRequests.Dec()
			r := recover()

			status := c.Response().StatusCode()
			if r != nil || err != nil {
				status = fiber.StatusInternalServerError
				var fe *fiber.Error
				if r == nil && errors.As(err, &fe) {
					status = fe.Code
				}
			}
			code := strconv.Itoa(status)
			method := c.Method()

			RequestsTotal.WithLabelValues(method, code).Inc()
			RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
			if src, ok := c.Locals(policy.LocalRedirect).(string); ok {
				RedirectsTotal.WithLabelValues(src, code).Inc()
			}

			if r != nil {
				panic(r)
			}
		}()

		return c.Next()
	}
}

// ObserveImage counts one image endpoint request with the given outcome
// ("local", "variant", "proxied", "rejected", "not_found").
func ObserveImage(outcome string) {
	ImageRequestsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
