package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector - метрики сервиса в собственном реестре.
// Все методы безопасны для nil-получателя, чтобы компоненты работали без метрик в тестах.
type Collector struct {
	reg *prometheus.Registry

	DirectionsRequests *prometheus.CounterVec // result: ok|error|cache_hit
	PathFallbacks      *prometheus.CounterVec // mode
	DirectionsLatency  prometheus.Histogram
	BreakerState       prometheus.Gauge

	ActiveSessions    prometheus.Gauge
	SessionsStarted   prometheus.Counter
	FramesRendered    prometheus.Counter
	SegmentsCompleted *prometheus.CounterVec // mode
	FrameDuration     prometheus.Histogram

	RenderPublished   prometheus.Counter
	RenderPublishErrs prometheus.Counter

	PathsPrepared prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		DirectionsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_planner_directions_requests_total",
			Help: "Directions lookups by result.",
		}, []string{"result"}),
		PathFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_planner_path_fallbacks_total",
			Help: "Ground paths replaced by the straight two-point fallback.",
		}, []string{"mode"}),
		DirectionsLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_planner_directions_latency_seconds",
			Help:    "Latency of directions API calls.",
			Buckets: prometheus.DefBuckets,
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "route_planner_directions_breaker_state",
			Help: "Directions circuit breaker state (0 closed, 1 half-open, 2 open).",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "route_planner_animation_sessions_active",
			Help: "Number of live animation sessions.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_planner_animation_sessions_started_total",
			Help: "Total animation sessions started.",
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_planner_animation_frames_total",
			Help: "Total reveal-loop frames processed.",
		}),
		SegmentsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_planner_animation_segments_completed_total",
			Help: "Segments animated to completion by mode.",
		}, []string{"mode"}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_planner_animation_frame_seconds",
			Help:    "Time spent inside a reveal-loop frame callback.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		RenderPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_planner_render_commands_published_total",
			Help: "Render commands published to NATS.",
		}),
		RenderPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_planner_render_publish_errors_total",
			Help: "Render command publish errors.",
		}),
		PathsPrepared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_planner_paths_prepared_total",
			Help: "Segment paths prepared and stored by the worker.",
		}),
	}

	reg.MustRegister(
		c.DirectionsRequests,
		c.PathFallbacks,
		c.DirectionsLatency,
		c.BreakerState,
		c.ActiveSessions,
		c.SessionsStarted,
		c.FramesRendered,
		c.SegmentsCompleted,
		c.FrameDuration,
		c.RenderPublished,
		c.RenderPublishErrs,
		c.PathsPrepared,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return c
}

// Handler отдаёт метрики в формате Prometheus
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) DirectionsResult(result string) {
	if c == nil {
		return
	}
	c.DirectionsRequests.WithLabelValues(result).Inc()
}

func (c *Collector) DirectionsObserve(d time.Duration) {
	if c == nil {
		return
	}
	c.DirectionsLatency.Observe(d.Seconds())
}

func (c *Collector) BreakerSet(state float64) {
	if c == nil {
		return
	}
	c.BreakerState.Set(state)
}

func (c *Collector) PathFallback(mode string) {
	if c == nil {
		return
	}
	c.PathFallbacks.WithLabelValues(mode).Inc()
}

func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.SessionsStarted.Inc()
}

func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.Set(float64(n))
}

func (c *Collector) FrameObserve(d time.Duration) {
	if c == nil {
		return
	}
	c.FramesRendered.Inc()
	c.FrameDuration.Observe(d.Seconds())
}

func (c *Collector) SegmentCompleted(mode string) {
	if c == nil {
		return
	}
	c.SegmentsCompleted.WithLabelValues(mode).Inc()
}

func (c *Collector) RenderPublishedInc() {
	if c == nil {
		return
	}
	c.RenderPublished.Inc()
}

func (c *Collector) RenderPublishErrInc() {
	if c == nil {
		return
	}
	c.RenderPublishErrs.Inc()
}

func (c *Collector) PathPrepared() {
	if c == nil {
		return
	}
	c.PathsPrepared.Inc()
}
