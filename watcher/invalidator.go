// Package watcher clears the render caches when a dependency changes and
// tells live-reload clients to refresh.
package watcher

import (
	"log/slog"
	"sync"

	"github.com/docs-ui/uipreview/metrics"
)

// Op is the kind of change reported for a dependency path.
type Op int

const (
	OpAdd Op = iota
	OpChange
	OpUnlink
)

// String returns the string representation of the Op
func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpUnlink:
		return "unlink"
	default:
		return "unknown"
	}
}

// Event is a change to one dependency path.
type Event struct {
	Op   Op
	Path string
}

// State is the readiness of the event source.
type State int

const (
	// StateReady is the initial state: the source may still be reporting its
	// startup scan, so add events are not real changes.
	StateReady State = iota
	// StateArmed is entered once the startup scan has completed.
	StateArmed
)

// String returns the string representation of the State
func (s State) String() string {
	if s == StateArmed {
		return "armed"
	}
	return "ready"
}

// Config wires an Invalidator to the caches and the reload transport.
type Config struct {
	Invalidate func()
	Broadcast  func()
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}

// Invalidator decides which dependency events reset the render caches.
type Invalidator struct {
	invalidate func()
	broadcast  func()
	recorder   metrics.Recorder
	logger     *slog.Logger

	mu    sync.Mutex
	state State
}

// NewInvalidator returns an Invalidator in StateReady.
func NewInvalidator(cfg Config) *Invalidator {
	inv := &Invalidator{
		invalidate: cfg.Invalidate,
		broadcast:  cfg.Broadcast,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
	}
	if inv.invalidate == nil {
		inv.invalidate = func() {}
	}
	if inv.broadcast == nil {
		inv.broadcast = func() {}
	}
	if inv.recorder == nil {
		inv.recorder = metrics.NoopRecorder{}
	}
	if inv.logger == nil {
		inv.logger = slog.Default()
	}
	return inv
}

// State returns the current state.
func (inv *Invalidator) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// ScanComplete arms the invalidator. Further calls are no-ops.
func (inv *Invalidator) ScanComplete() {
	inv.mu.Lock()
	armed := inv.state == StateReady
	inv.state = StateArmed
	inv.mu.Unlock()
	if armed {
		inv.logger.Debug("watcher armed")
	}
}

// Handle clears the caches and broadcasts a reload unless ev is an add
// reported before the startup scan completed. It reports whether ev was
// honored.
func (inv *Invalidator) Handle(ev Event) bool {
	inv.mu.Lock()
	state := inv.state
	inv.mu.Unlock()

	honored := ev.Op != OpAdd || state == StateArmed
	inv.recorder.IncInvalidation(ev.Op.String(), honored)
	if !honored {
		return false
	}

	inv.logger.Info("dependency changed", "op", ev.Op, "path", ev.Path)
	inv.invalidate()
	inv.broadcast()
	return true
}
