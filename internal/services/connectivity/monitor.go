// Package connectivity tracks remote API liveness
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
)

// Monitor probes the remote ledger API and tracks connectivity state.
// It runs on a fixed poll interval once started, and can be probed on
// demand via Check. Probes are non-reentrant: a Check while another
// probe is in flight returns the last known state.
type Monitor struct {
	client       interfaces.LedgerAPIClient
	probeTimeout time.Duration
	pollInterval time.Duration
	staleness    time.Duration
	logger       *common.Logger

	mu        sync.Mutex
	snapshot  models.ConnectivitySnapshot
	callbacks []func(online bool)
}

// MonitorOption configures the monitor
type MonitorOption func(*Monitor)

// WithProbeTimeout sets the per-probe timeout
func WithProbeTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.probeTimeout = d
	}
}

// WithPollInterval sets the background poll interval
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.pollInterval = d
	}
}

// WithStalenessThreshold sets the data staleness threshold
func WithStalenessThreshold(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.staleness = d
	}
}

// NewMonitor creates a connectivity monitor over the given API client.
// The monitor starts out assuming it is connected; the first probe
// corrects that if the network is down.
func NewMonitor(client interfaces.LedgerAPIClient, logger *common.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		client:       client,
		probeTimeout: common.ProbeTimeout,
		pollInterval: common.ProbeInterval,
		staleness:    common.StalenessThreshold,
		logger:       logger,
		snapshot:     models.ConnectivitySnapshot{IsConnected: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check probes the remote API once. If a probe is already in flight,
// the last known state is returned without re-probing.
func (m *Monitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	if m.snapshot.IsChecking {
		connected := m.snapshot.IsConnected
		m.mu.Unlock()
		return connected
	}
	m.snapshot.IsChecking = true
	m.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.client.Ping(probeCtx)
	cancel()

	now := time.Now()

	m.mu.Lock()
	wasConnected := m.snapshot.IsConnected
	m.snapshot.IsChecking = false
	m.snapshot.LastCheckedAt = &now
	if err != nil {
		m.snapshot.IsConnected = false
		m.snapshot.ConsecutiveFailures++
	} else {
		m.snapshot.IsConnected = true
		m.snapshot.ConsecutiveFailures = 0
	}
	connected := m.snapshot.IsConnected
	failures := m.snapshot.ConsecutiveFailures
	var fire []func(online bool)
	if connected != wasConnected {
		fire = append(fire, m.callbacks...)
	}
	m.mu.Unlock()

	if connected != wasConnected {
		m.logger.Info().Bool("connected", connected).Int("failures", failures).Msg("Connectivity changed")
		for _, fn := range fire {
			fn(connected)
		}
	} else if err != nil {
		m.logger.Debug().Err(err).Int("failures", failures).Msg("Connectivity probe failed")
	}

	return connected
}

// IsConnected returns the last known state without probing.
func (m *Monitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot.IsConnected
}

// Snapshot returns a copy of the current connectivity state.
func (m *Monitor) Snapshot() models.ConnectivitySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot
	if m.snapshot.LastCheckedAt != nil {
		t := *m.snapshot.LastCheckedAt
		snap.LastCheckedAt = &t
	}
	return snap
}

// IsDataStale reports whether the last successful sync is older than
// the staleness threshold. Distinguishes "offline but fresh" from
// "offline and stale".
func (m *Monitor) IsDataStale(lastSyncedAt time.Time) bool {
	if lastSyncedAt.IsZero() {
		return true
	}
	return time.Since(lastSyncedAt) > m.staleness
}

// OnTransition registers a callback fired whenever the monitor flips
// between Connected and Disconnected.
func (m *Monitor) OnTransition(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Start launches the background poll loop. It probes immediately, then
// on every tick until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		m.Check(ctx)

		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info().Msg("Connectivity monitor: stopped")
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

// Ensure Monitor implements ConnectivityMonitor
var _ interfaces.ConnectivityMonitor = (*Monitor)(nil)
