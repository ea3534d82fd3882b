package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/vartasolar/fieldops-backend/pkg/logger"
	"github.com/vartasolar/fieldops-backend/pkg/metrics"
)

const (
	defaultProbeInterval = 15 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

// Pinger is anything that can confirm the remote backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks backend reachability by probing on a fixed interval. It
// keeps the current online flag plus a one-shot wasOffline marker that a
// consumer arms implicitly on every offline observation and clears after
// reacting to the recovery.
type Monitor struct {
	pinger   Pinger
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
	interval time.Duration
	timeout  time.Duration

	mu         sync.Mutex
	online     bool
	wasOffline bool

	recovered chan struct{}
}

type MonitorParams struct {
	Pinger   Pinger
	Logger   *logger.Logger
	Metrics  *metrics.SyncMetrics
	Interval time.Duration
	Timeout  time.Duration
}

// NewMonitor builds a monitor. It starts optimistic: the backend is assumed
// online until the first probe says otherwise.
func NewMonitor(params MonitorParams) *Monitor {
	interval := params.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Monitor{
		pinger:    params.Pinger,
		logg:      params.Logger,
		metrics:   params.Metrics,
		interval:  interval,
		timeout:   timeout,
		online:    true,
		recovered: make(chan struct{}, 1),
	}
}

// Run probes until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe runs a single reachability check and updates the online state.
func (m *Monitor) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.pinger.Ping(probeCtx)
	online := err == nil
	if !online && m.logg != nil {
		m.logg.Warn(ctx, "backend probe failed")
	}
	m.SetOnline(online)
	return online
}

// SetOnline records a reachability observation. Going offline arms the
// one-shot wasOffline marker; an offline-to-online transition signals the
// recovery channel.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	if !online {
		m.wasOffline = true
	}
	m.mu.Unlock()

	m.metrics.SetOnline(online)

	if online && !wasOnline {
		select {
		case m.recovered <- struct{}{}:
		default:
		}
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// WasOffline reports whether an offline period has been observed since the
// marker was last cleared.
func (m *Monitor) WasOffline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wasOffline
}

// ClearWasOffline disarms the one-shot marker after the consumer has reacted
// to the recovery.
func (m *Monitor) ClearWasOffline() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wasOffline = false
}

// Recovered signals once per offline-to-online transition. The channel is
// buffered so a slow consumer coalesces bursts instead of blocking probes.
func (m *Monitor) Recovered() <-chan struct{} {
	return m.recovered
}
