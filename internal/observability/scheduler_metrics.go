package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/deskernel/kernel"
)

// EngineCollector exposes engine-level Prometheus metrics and implements
// kernel.EventHooks, so it can be wired into an Engine via
// kernel.WithEventHooks without the kernel package ever importing
// Prometheus directly.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	DispatchDuration prometheus.Histogram
	QueueDepth       prometheus.Gauge
	DispatchedTotal  prometheus.Counter
	CancelledTotal   prometheus.Counter
	RemovedTotal     prometheus.Counter
}

// NewEngineCollector registers engine metrics against the provided
// registerer.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	dispatchHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deskernel_engine_dispatch_duration_seconds",
		Help:    "Wall-clock duration of each event closure invoked by the engine.",
		Buckets: []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1},
	})
	dispatchHistogram, err := registerHistogram(reg, dispatchHistogram, "deskernel_engine_dispatch_duration_seconds")
	if err != nil {
		return nil, err
	}

	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "deskernel_engine_queue_depth",
		Help: "Number of events currently held by the engine's scheduler.",
	})
	queueGauge, err = registerGauge(reg, queueGauge, "deskernel_engine_queue_depth")
	if err != nil {
		return nil, err
	}

	dispatched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskernel_engine_dispatched_total",
		Help: "Cumulative number of events dispatched by the engine.",
	})
	dispatched, err = registerCounter(reg, dispatched, "deskernel_engine_dispatched_total")
	if err != nil {
		return nil, err
	}

	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskernel_engine_cancelled_total",
		Help: "Cumulative number of events cancelled before dispatch.",
	})
	cancelled, err = registerCounter(reg, cancelled, "deskernel_engine_cancelled_total")
	if err != nil {
		return nil, err
	}

	removed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskernel_engine_removed_total",
		Help: "Cumulative number of events removed from the scheduler before dispatch.",
	})
	removed, err = registerCounter(reg, removed, "deskernel_engine_removed_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:         gatherer,
		DispatchDuration: dispatchHistogram,
		QueueDepth:       queueGauge,
		DispatchedTotal:  dispatched,
		CancelledTotal:   cancelled,
		RemovedTotal:     removed,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// OnDispatch implements kernel.EventHooks.
func (c *EngineCollector) OnDispatch(_ kernel.EventKey, latency time.Duration) {
	if c == nil {
		return
	}
	c.DispatchDuration.Observe(latency.Seconds())
	c.DispatchedTotal.Inc()
}

// OnCancel implements kernel.EventHooks.
func (c *EngineCollector) OnCancel(kernel.EventKey) {
	if c == nil {
		return
	}
	c.CancelledTotal.Inc()
}

// OnRemove implements kernel.EventHooks.
func (c *EngineCollector) OnRemove(kernel.EventKey) {
	if c == nil {
		return
	}
	c.RemovedTotal.Inc()
}

// OnQueueDepth implements kernel.EventHooks.
func (c *EngineCollector) OnQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.QueueDepth.Set(float64(depth))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
