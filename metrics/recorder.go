// Package metrics records render, invalidation and live-reload observations.
package metrics

import "time"

// ResultLabel enumerates render outcomes.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines the observability hooks used by the renderer, the
// watcher and the live-reload hub.
type Recorder interface {
	ObserveRender(layout string, result ResultLabel, d time.Duration)
	IncInvalidation(op string, honored bool)
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(string, ResultLabel, time.Duration) {}
func (NoopRecorder) IncInvalidation(string, bool)                     {}
func (NoopRecorder) SetLiveReloadClients(int)                         {}
