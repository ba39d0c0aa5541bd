package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for the API surface and the
// pacing engine, and provides the fiber middleware and /metrics handler
// that expose them.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Recomputes         *prometheus.CounterVec
	RecomputeDurations *prometheus.HistogramVec
	CourseImports      *prometheus.CounterVec
	StreamClients      prometheus.Gauge
}

// NewCollector registers the metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shpacer_http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "status"})
	requests, err := registerCounterVec(reg, requests, "shpacer_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shpacer_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"})
	durations, err = registerHistogramVec(reg, durations, "shpacer_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	recomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shpacer_plan_recomputes_total",
		Help: "Pacing recomputations, labeled by pace mode.",
	}, []string{"mode"})
	recomputes, err = registerCounterVec(reg, recomputes, "shpacer_plan_recomputes_total")
	if err != nil {
		return nil, err
	}

	recomputeDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shpacer_plan_recompute_duration_seconds",
		Help:    "Pacing recomputation latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"mode"})
	recomputeDurations, err = registerHistogramVec(reg, recomputeDurations, "shpacer_plan_recompute_duration_seconds")
	if err != nil {
		return nil, err
	}

	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shpacer_course_imports_total",
		Help: "Imported courses, labeled by source format.",
	}, []string{"format"})
	imports, err = registerCounterVec(reg, imports, "shpacer_course_imports_total")
	if err != nil {
		return nil, err
	}

	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shpacer_stream_clients",
		Help: "Currently connected websocket clients.",
	}), "shpacer_stream_clients")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		HTTPRequests:       requests,
		HTTPDurations:      durations,
		Recomputes:         recomputes,
		RecomputeDurations: recomputeDurations,
		CourseImports:      imports,
		StreamClients:      clients,
	}, nil
}

// Middleware records request counts and durations for every handled
// route.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		if c == nil {
			return err
		}
		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := ctx.Route().Path
		if route == "" {
			route = ctx.Path()
		}
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		}
		return err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordRecompute notes one pacing computation in the given mode.
func (c *Collector) RecordRecompute(mode string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Recomputes != nil {
		c.Recomputes.WithLabelValues(mode).Inc()
	}
	if c.RecomputeDurations != nil {
		c.RecomputeDurations.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

// RecordImport notes one course import by source format.
func (c *Collector) RecordImport(format string) {
	if c == nil || c.CourseImports == nil {
		return
	}
	c.CourseImports.WithLabelValues(format).Inc()
}

// SetStreamClients reports the current websocket client count.
func (c *Collector) SetStreamClients(n int) {
	if c == nil || c.StreamClients == nil {
		return
	}
	c.StreamClients.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
