package db

import (
	"context"
	"fmt"
	"sync"
)

// ProbeFunc checks that the backing store is reachable.
type ProbeFunc func(ctx context.Context) error

// NetworkGate toggles store access on and off, the server-side counterpart of a
// client SDK's enableNetwork/disableNetwork. A nil gate is always enabled.
type NetworkGate struct {
	mu       sync.RWMutex
	disabled bool
	probe    ProbeFunc
}

// NewNetworkGate creates an enabled gate. probe may be nil.
func NewNetworkGate(probe ProbeFunc) *NetworkGate {
	return &NetworkGate{probe: probe}
}

// Check returns ErrNetworkDisabled when the gate is closed.
func (g *NetworkGate) Check() error {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.disabled {
		return ErrNetworkDisabled
	}
	return nil
}

// Enabled reports whether store calls are currently allowed.
func (g *NetworkGate) Enabled() bool {
	return g.Check() == nil
}

// Disable closes the gate. It is idempotent.
func (g *NetworkGate) Disable(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	g.disabled = true
	g.mu.Unlock()
	return nil
}

// Enable probes the store and opens the gate. The gate stays closed when the probe fails.
func (g *NetworkGate) Enable(ctx context.Context) error {
	if g == nil {
		return nil
	}
	if g.probe != nil {
		if err := g.probe(ctx); err != nil {
			return fmt.Errorf("store unreachable: %w", err)
		}
	}
	g.mu.Lock()
	g.disabled = false
	g.mu.Unlock()
	return nil
}
