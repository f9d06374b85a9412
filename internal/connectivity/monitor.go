// Package connectivity tracks whether the backing services are reachable and
// notifies subscribers when that changes.
package connectivity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Listener receives online/offline transitions.
type Listener interface {
	HandleOnline(ctx context.Context)
	HandleOffline(ctx context.Context)
}

// ProbeFunc reports whether the backend can be reached.
type ProbeFunc func(ctx context.Context) error

// Monitor holds the observed online flag. Listeners are called synchronously,
// in subscription order, and only when the flag actually changes.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]Listener
	order     []int
}

// NewMonitor creates a monitor that starts in the online state.
func NewMonitor(probe ProbeFunc, interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probe:     probe,
		interval:  interval,
		logger:    logger,
		online:    true,
		listeners: make(map[int]Listener),
	}
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers l and returns a function that removes it.
func (m *Monitor) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.order = append(m.order, id)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.listeners[id]; !ok {
			return
		}
		delete(m.listeners, id)
		for i, v := range m.order {
			if v == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
}

// SetOnline records a new state and notifies listeners on a transition.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]Listener, 0, len(m.order))
	for _, id := range m.order {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	m.logger.Info("Connectivity changed", zap.Bool("online", online), zap.Int("listeners", len(listeners)))
	for _, l := range listeners {
		if online {
			l.HandleOnline(ctx)
		} else {
			l.HandleOffline(ctx)
		}
	}
}

// Check runs the probe once and applies its result.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.probe == nil {
		return m.Online()
	}
	err := m.probe(ctx)
	if err != nil {
		m.logger.Debug("Connectivity probe failed", zap.Error(err))
	}
	m.SetOnline(ctx, err == nil)
	return err == nil
}

// Run probes on every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 || m.probe == nil {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, m.interval)
			m.Check(probeCtx)
			cancel()
		}
	}
}
