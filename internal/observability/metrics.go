// Package observability exposes Prometheus metrics and OpenTelemetry
// tracing for the orrery engine.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/scene"
)

// Collector bundles the engine's Prometheus metrics. It implements
// scene.Observer and body.Reporter.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames       prometheus.Counter
	PassDuration prometheus.Histogram
	Issues       *prometheus.CounterVec

	SimulatedSeconds prometheus.Gauge
	TimeScale        prometheus.Gauge
	Realism          prometheus.Gauge
	BodiesResolved   prometheus.Gauge
	BodiesTotal      prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_frames_total",
		Help: "Total number of resolve passes.",
	}), "orrery_frames_total")
	if err != nil {
		return nil, err
	}

	pass, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_resolve_duration_seconds",
		Help:    "Duration of one hierarchy resolve pass in seconds.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}), "orrery_resolve_duration_seconds")
	if err != nil {
		return nil, err
	}

	issues, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_issues_total",
		Help: "Reported clamps, skips and exclusions, labeled by kind and severity.",
	}, []string{"kind", "severity"}), "orrery_issues_total")
	if err != nil {
		return nil, err
	}

	gauge := func(name, help string) (prometheus.Gauge, error) {
		return registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}), name)
	}
	sim, err := gauge("orrery_simulated_seconds", "Simulated seconds since J2000.")
	if err != nil {
		return nil, err
	}
	timeScale, err := gauge("orrery_time_scale", "Effective time-scale multiplier (0 when paused).")
	if err != nil {
		return nil, err
	}
	realism, err := gauge("orrery_realism_level", "Current realism level in [0, 1].")
	if err != nil {
		return nil, err
	}
	resolved, err := gauge("orrery_bodies_resolved", "Bodies resolved in the last pass.")
	if err != nil {
		return nil, err
	}
	total, err := gauge("orrery_bodies", "Bodies in the current catalog.")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Frames:           frames,
		PassDuration:     pass,
		Issues:           issues,
		SimulatedSeconds: sim,
		TimeScale:        timeScale,
		Realism:          realism,
		BodiesResolved:   resolved,
		BodiesTotal:      total,
	}, nil
}

// PassCompleted implements scene.Observer.
func (c *Collector) PassCompleted(d time.Duration, st scene.SimulationState, resolved, total int) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.PassDuration.Observe(d.Seconds())
	c.SimulatedSeconds.Set(st.SimulatedSeconds)
	c.TimeScale.Set(st.TimeScale)
	c.Realism.Set(st.RealismLevel)
	c.BodiesResolved.Set(float64(resolved))
	c.BodiesTotal.Set(float64(total))
}

// Report implements body.Reporter by counting issues.
func (c *Collector) Report(i body.Issue) {
	if c == nil {
		return
	}
	c.Issues.WithLabelValues(i.Kind(), i.Severity.String()).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
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

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
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
