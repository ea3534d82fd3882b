package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records sync-coordinator activity: drain passes, per-action
// replay outcomes, queue depth and connectivity.
type SyncMetrics struct {
	drainDuration *prometheus.HistogramVec
	replaySuccess *prometheus.CounterVec
	replayFailure *prometheus.CounterVec
	pendingDepth  prometheus.Gauge
	cacheFallback prometheus.Counter
	online        prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	drainDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_drain_duration_seconds",
		Help:    "Duration of pending-action drain passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	replaySuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_replay_success_total",
		Help: "Pending actions replayed successfully against the remote backend.",
	}, []string{"kind"})
	replayFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_replay_failure_total",
		Help: "Pending actions that failed replay and stayed queued.",
	}, []string{"kind"})
	pendingDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_pending_actions",
		Help: "Current depth of the pending-action queue.",
	})
	cacheFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_cache_fallback_total",
		Help: "Order reads served from the local cache because the backend was unreachable.",
	})
	online := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_backend_online",
		Help: "1 when the remote backend is reachable, 0 otherwise.",
	})
	reg.MustRegister(drainDuration, replaySuccess, replayFailure, pendingDepth, cacheFallback, online)
	return &SyncMetrics{
		drainDuration: drainDuration,
		replaySuccess: replaySuccess,
		replayFailure: replayFailure,
		pendingDepth:  pendingDepth,
		cacheFallback: cacheFallback,
		online:        online,
	}
}

// ObserveDrainDuration records the duration of one drain pass.
func (s *SyncMetrics) ObserveDrainDuration(trigger string, duration time.Duration) {
	if s == nil || s.drainDuration == nil {
		return
	}
	s.drainDuration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncReplaySuccess increments the replay success counter for the action kind.
func (s *SyncMetrics) IncReplaySuccess(kind string) {
	if s == nil || s.replaySuccess == nil {
		return
	}
	s.replaySuccess.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncReplayFailure increments the replay failure counter for the action kind.
func (s *SyncMetrics) IncReplayFailure(kind string) {
	if s == nil || s.replayFailure == nil {
		return
	}
	s.replayFailure.WithLabelValues(normalizeLabel(kind)).Inc()
}

// SetPendingDepth reports the current queue depth.
func (s *SyncMetrics) SetPendingDepth(depth int) {
	if s == nil || s.pendingDepth == nil {
		return
	}
	s.pendingDepth.Set(float64(depth))
}

// IncCacheFallback counts a read served from the cache snapshot.
func (s *SyncMetrics) IncCacheFallback() {
	if s == nil || s.cacheFallback == nil {
		return
	}
	s.cacheFallback.Inc()
}

// SetOnline reports backend reachability.
func (s *SyncMetrics) SetOnline(online bool) {
	if s == nil || s.online == nil {
		return
	}
	if online {
		s.online.Set(1)
		return
	}
	s.online.Set(0)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
