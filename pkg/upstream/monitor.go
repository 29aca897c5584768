package upstream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"halcyon-ai/promptgate/pkg/config"
)

// Liveness status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// State is the monitor's cached view of backend health.
type State struct {
	// Status is "ok" or "degraded".
	Status string `json:"status"`

	// UpstreamReachable reports whether the last probe succeeded.
	UpstreamReachable bool `json:"upstream"`

	// LastChecked is when the state was last refreshed.
	LastChecked time.Time `json:"-"`
}

// Monitor maintains a time-windowed cached verdict of backend health.
//
// Status returns the cached state when it is younger than the refresh
// window; otherwise a single probe refreshes it, shared by all
// concurrent callers. Probe failures never propagate, only a degraded
// state. Safe for concurrent use.
type Monitor struct {
	client *Client
	cfg    config.LivenessConfig

	mu      sync.RWMutex
	state   State
	group   singleflight.Group
	updater HealthUpdater
}

// HealthUpdater receives upstream health transitions.
// The telemetry collector satisfies this interface.
type HealthUpdater interface {
	UpdateUpstreamHealth(healthy bool)
}

// NewMonitor creates a liveness monitor over the given client.
// The initial state is degraded until the first probe runs.
func NewMonitor(client *Client, cfg config.LivenessConfig) *Monitor {
	return &Monitor{
		client: client,
		cfg:    cfg,
		state: State{
			Status:            StatusDegraded,
			UpstreamReachable: false,
		},
	}
}

// SetHealthUpdater registers a sink for health transitions.
// Must be called before the monitor is shared between goroutines.
func (m *Monitor) SetHealthUpdater(u HealthUpdater) {
	m.updater = u
}

// Status returns the current liveness state, probing the backend at
// most once per refresh window.
func (m *Monitor) Status(ctx context.Context) State {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()

	if time.Since(state.LastChecked) < m.cfg.Window {
		return state
	}

	v, _, _ := m.group.Do("probe", func() (any, error) {
		// A caller that waited on an in-flight probe sees the fresh
		// state here instead of probing again.
		m.mu.RLock()
		current := m.state
		m.mu.RUnlock()
		if time.Since(current.LastChecked) < m.cfg.Window {
			return current, nil
		}
		return m.refresh(ctx), nil
	})

	return v.(State)
}

// refresh probes the backend and replaces the cached state.
func (m *Monitor) refresh(ctx context.Context) State {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	err := m.client.Probe(probeCtx, m.cfg.ProbePath)

	next := State{
		Status:            StatusOK,
		UpstreamReachable: true,
		LastChecked:       time.Now(),
	}
	if err != nil {
		next.Status = StatusDegraded
		next.UpstreamReachable = false
		slog.Warn("backend liveness probe failed", "error", err)
	}

	m.mu.Lock()
	previous := m.state
	m.state = next
	m.mu.Unlock()

	if previous.UpstreamReachable != next.UpstreamReachable {
		slog.Info("backend liveness changed",
			"status", next.Status,
			"upstream_reachable", next.UpstreamReachable,
		)
	}

	if m.updater != nil {
		m.updater.UpdateUpstreamHealth(next.UpstreamReachable)
	}

	return next
}
