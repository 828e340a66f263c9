package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface by recording Prometheus
// metrics. Register it with the Set*Hooks functions at startup.
type Prometheus struct {
	gatherer prometheus.Gatherer

	Members   prometheus.Gauge
	Clusters  prometheus.Gauge
	Relations prometheus.Gauge

	Frames        *prometheus.CounterVec
	FrameDuration prometheus.Histogram
	Tick          prometheus.Gauge
	Aggression    prometheus.Gauge
	Settled       prometheus.Gauge
	Pointer       *prometheus.CounterVec

	CacheOps     *prometheus.CounterVec
	CacheWritten *prometheus.CounterVec

	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
}

var (
	_ SimulationHooks = (*Prometheus)(nil)
	_ CacheHooks      = (*Prometheus)(nil)
	_ RenderHooks     = (*Prometheus)(nil)
)

// NewPrometheus registers the comboom metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{gatherer: prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok {
		p.gatherer = g
	}

	var err error
	gauge := func(name, help string) prometheus.Gauge {
		if err != nil {
			return nil
		}
		var g prometheus.Gauge
		g, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}), name)
		return g
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		if err != nil {
			return nil
		}
		var c *prometheus.CounterVec
		c, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels), name)
		return c
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		if err != nil {
			return nil
		}
		var h prometheus.Histogram
		h, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}), name)
		return h
	}

	p.Members = gauge("comboom_members", "Number of members in the loaded store.")
	p.Clusters = gauge("comboom_clusters", "Number of clusters in the loaded store.")
	p.Relations = gauge("comboom_relations", "Number of distinct related pairs in the loaded store.")

	p.Frames = counterVec("comboom_frames_total", "Simulation frames stepped, labeled by whether the pipeline was frozen.", "frozen")
	p.FrameDuration = histogram("comboom_frame_duration_seconds", "Time spent computing one simulation frame.",
		[]float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05})
	p.Tick = gauge("comboom_tick", "Current frame counter; negative once the layout has settled.")
	p.Aggression = gauge("comboom_aggression", "Repulsion constant after the settle transition.")
	p.Settled = gauge("comboom_settled", "1 once the layout has settled.")
	p.Pointer = counterVec("comboom_pointer_events_total", "Pointer selections and releases.", "event")

	p.CacheOps = counterVec("comboom_cache_operations_total", "Cache lookups and writes, labeled by key type and result.", "key_type", "result")
	p.CacheWritten = counterVec("comboom_cache_written_bytes_total", "Bytes written to the cache, labeled by key type.", "key_type")

	p.Renders = counterVec("comboom_renders_total", "Screenshot renders, labeled by format and status.", "format", "status")
	p.RenderDuration = histogram("comboom_render_duration_seconds", "Screenshot render latency.",
		[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5})

	if err != nil {
		return nil, err
	}
	return p, nil
}

// Gatherer returns the gatherer paired with the registry the metrics were
// registered against.
func (p *Prometheus) Gatherer() prometheus.Gatherer { return p.gatherer }

// =============================================================================
// SimulationHooks
// =============================================================================

func (p *Prometheus) OnLoad(members, clusters, relations int) {
	p.Members.Set(float64(members))
	p.Clusters.Set(float64(clusters))
	p.Relations.Set(float64(relations))
	p.Settled.Set(0)
}

func (p *Prometheus) OnStep(tick int, frozen bool, duration time.Duration) {
	p.Frames.WithLabelValues(strconv.FormatBool(frozen)).Inc()
	p.FrameDuration.Observe(duration.Seconds())
	p.Tick.Set(float64(tick))
}

func (p *Prometheus) OnDecay(aggression float64) {
	p.Aggression.Set(aggression)
	p.Settled.Set(1)
}

func (p *Prometheus) OnSelect(string)  { p.Pointer.WithLabelValues("select").Inc() }
func (p *Prometheus) OnRelease(string) { p.Pointer.WithLabelValues("release").Inc() }

// =============================================================================
// CacheHooks
// =============================================================================

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheOps.WithLabelValues(keyType, "set").Inc()
	p.CacheWritten.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// RenderHooks
// =============================================================================

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, formats []string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	for _, f := range formats {
		p.Renders.WithLabelValues(f, status).Inc()
	}
	p.RenderDuration.Observe(duration.Seconds())
}

// register adds c to reg, returning the already registered collector of the
// same type when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
