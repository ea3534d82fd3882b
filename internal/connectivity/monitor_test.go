package connectivity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error {
	return s.err
}

func TestMonitorStartsOnline(t *testing.T) {
	m := NewMonitor(MonitorParams{Pinger: &stubPinger{}})
	assert.True(t, m.IsOnline())
	assert.False(t, m.WasOffline())
}

func TestProbeTracksReachability(t *testing.T) {
	pinger := &stubPinger{}
	m := NewMonitor(MonitorParams{Pinger: pinger})

	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.IsOnline())

	pinger.err = errors.New("connection refused")
	assert.False(t, m.Probe(context.Background()))
	assert.False(t, m.IsOnline())
	assert.True(t, m.WasOffline())
}

func TestWasOfflineIsOneShot(t *testing.T) {
	m := NewMonitor(MonitorParams{Pinger: &stubPinger{}})

	m.SetOnline(false)
	m.SetOnline(true)
	assert.True(t, m.WasOffline(), "marker stays armed until cleared")

	m.ClearWasOffline()
	assert.False(t, m.WasOffline())

	m.SetOnline(true)
	assert.False(t, m.WasOffline(), "staying online must not re-arm the marker")
}

func TestRecoveredSignalsOncePerTransition(t *testing.T) {
	m := NewMonitor(MonitorParams{Pinger: &stubPinger{}})

	m.SetOnline(false)
	m.SetOnline(true)

	select {
	case <-m.Recovered():
	case <-time.After(time.Second):
		t.Fatal("expected a recovery signal")
	}

	m.SetOnline(true)
	select {
	case <-m.Recovered():
		t.Fatal("online-to-online must not signal")
	default:
	}
}

func TestRecoveredCoalescesBursts(t *testing.T) {
	m := NewMonitor(MonitorParams{Pinger: &stubPinger{}})

	for i := 0; i < 3; i++ {
		m.SetOnline(false)
		m.SetOnline(true)
	}

	select {
	case <-m.Recovered():
	default:
		t.Fatal("expected at least one buffered signal")
	}
	select {
	case <-m.Recovered():
		t.Fatal("signals must coalesce into the single-slot buffer")
	default:
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	m := NewMonitor(MonitorParams{Pinger: &stubPinger{}, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
