// Package obsmetrics wires github.com/prometheus/client_golang into the
// pipeline driver, adapted from the teacher's metrics.Registry/Counter/
// Gauge/Averager trio (metrics/metric.go, metrics/metrics.go):
// counters/gauges/averagers here track units tabulated, ties resolved,
// and per-stage wall-clock instead of consensus rounds.
package obsmetrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Averager tracks a running average - used here for the per-stage
// wall-clock latency metric (vmtally_stage_latency_seconds).
type Averager interface {
	Observe(value float64)
	Read() float64
}

type averager struct {
	mu    sync.RWMutex
	sum   float64
	count float64

	promCount prometheus.Counter
	promSum   prometheus.Gauge
}

func newAverager(name, help string, reg prometheus.Registerer) (Averager, error) {
	count := prometheus.NewCounter(prometheus.CounterOpts{
		Name: name + "_count",
		Help: "Total # of observations of " + help,
	})
	sum := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name + "_sum",
		Help: "Sum of " + help,
	})
	if err := reg.Register(count); err != nil {
		return nil, err
	}
	if err := reg.Register(sum); err != nil {
		return nil, err
	}
	return &averager{promCount: count, promSum: sum}, nil
}

func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += value
	a.count++
	if a.promCount != nil {
		a.promCount.Inc()
	}
	if a.promSum != nil {
		a.promSum.Add(value)
	}
}

func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}

// Registry is the run's metric set: one registration point for every
// counter/gauge/averager the pipeline driver reports over --metrics-addr.
type Registry struct {
	mu        sync.RWMutex
	prom      prometheus.Registerer
	counters  map[string]prometheus.Counter
	gauges    map[string]prometheus.Gauge
	averagers map[string]Averager
}

// NewRegistry wraps a prometheus.Registerer (typically
// prometheus.NewRegistry() for an isolated run, or
// prometheus.DefaultRegisterer for a long-lived server).
func NewRegistry(reg prometheus.Registerer) *Registry {
	return &Registry{
		prom:      reg,
		counters:  make(map[string]prometheus.Counter),
		gauges:    make(map[string]prometheus.Gauge),
		averagers: make(map[string]Averager),
	}
}

// Counter returns (creating and registering if necessary) a named counter.
func (r *Registry) Counter(name, help string) (prometheus.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c, nil
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	if err := r.prom.Register(c); err != nil {
		return nil, fmt.Errorf("obsmetrics: register counter %s: %w", name, err)
	}
	r.counters[name] = c
	return c, nil
}

// Gauge returns (creating and registering if necessary) a named gauge.
func (r *Registry) Gauge(name, help string) (prometheus.Gauge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g, nil
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := r.prom.Register(g); err != nil {
		return nil, fmt.Errorf("obsmetrics: register gauge %s: %w", name, err)
	}
	r.gauges[name] = g
	return g, nil
}

// Averager returns (creating and registering if necessary) a named
// averager.
func (r *Registry) Averager(name, help string) (Averager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.averagers[name]; ok {
		return a, nil
	}
	a, err := newAverager(name, help, r.prom)
	if err != nil {
		return nil, err
	}
	r.averagers[name] = a
	return a, nil
}

// RunMetrics is the fixed set of metrics registered for one pipeline
// invocation: units tabulated, ties resolved by kind, stage latency and
// validation failures. pipeline.Run updates the unit, tie and validation
// counters; it does not observe StageLatencySecs.
type RunMetrics struct {
	UnitsTabulated     prometheus.Counter
	TiesRandom         prometheus.Counter
	TiesDeterministic  prometheus.Counter
	StageLatencySecs   Averager
	ValidationFailures prometheus.Counter
}

// NewRunMetrics registers the fixed pipeline metric set against reg.
func NewRunMetrics(reg *Registry) (*RunMetrics, error) {
	unitsTabulated, err := reg.Counter("vmtally_units_tabulated_total", "Units tabulated this run")
	if err != nil {
		return nil, err
	}
	tiesRandom, err := reg.Counter("vmtally_ties_random_total", "Ties resolved by the random tie policy")
	if err != nil {
		return nil, err
	}
	tiesDeterministic, err := reg.Counter("vmtally_ties_deterministic_total", "Ties resolved by a deterministic tie policy")
	if err != nil {
		return nil, err
	}
	stageLatency, err := reg.Averager("vmtally_stage_latency_seconds", "per-stage wall-clock seconds")
	if err != nil {
		return nil, err
	}
	validationFailures, err := reg.Counter("vmtally_validation_failures_total", "Validation issues accumulated at S1")
	if err != nil {
		return nil, err
	}
	return &RunMetrics{
		UnitsTabulated:     unitsTabulated,
		TiesRandom:         tiesRandom,
		TiesDeterministic:  tiesDeterministic,
		StageLatencySecs:   stageLatency,
		ValidationFailures: validationFailures,
	}, nil
}
