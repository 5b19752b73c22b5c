// Package telemetry counts what happens to a form after it leaves the
// editor: how long its widget took to assemble, how often it was published,
// how its submissions ended and how many operator patterns were dropped on
// the way. Nothing is recorded until a sink is installed with RegisterEmitter.
package telemetry

import (
	"context"
	"sync/atomic"
)

// Emitter receives one measurement. value is an int64 for every metric
// this package defines.
type Emitter func(ctx context.Context, name string, labels map[string]string, value any)

// Metric names, also used as the name argument of Emitter.
const (
	// labels: mode
	MetricExportLatency = "inquiry_export_latency_ms"
	// labels: form_id, outcome ("accepted" or an error code)
	MetricSubmissions = "inquiry_submissions_total"
	// labels: outcome ("ok", upload_failed, circuit_open)
	MetricPublishLatency = "inquiry_publish_latency_ms"
	// labels: form_id
	MetricDroppedPatterns = "inquiry_dropped_patterns_total"
)

var sink atomic.Pointer[Emitter]

// RegisterEmitter installs fn for the whole process. nil uninstalls it.
func RegisterEmitter(fn Emitter) {
	if fn == nil {
		sink.Store(nil)
		return
	}
	sink.Store(&fn)
}

func emit(ctx context.Context, name string, labels map[string]string, value int64) {
	if fn := sink.Load(); fn != nil {
		(*fn)(ctx, name, labels, value)
	}
}

// EmitExportLatency records the time spent assembling one widget artifact.
func EmitExportLatency(ctx context.Context, mode string, ms int64) {
	emit(ctx, MetricExportLatency, map[string]string{"mode": mode}, ms)
}

func EmitSubmission(ctx context.Context, formID, outcome string) {
	emit(ctx, MetricSubmissions, map[string]string{"form_id": formID, "outcome": outcome}, 1)
}

// EmitPublishLatency records one publish attempt. A refused attempt is
// reported with zero latency.
func EmitPublishLatency(ctx context.Context, outcome string, ms int64) {
	emit(ctx, MetricPublishLatency, map[string]string{"outcome": outcome}, ms)
}

// EmitDroppedPatterns records the custom patterns a form lost to the
// portability check. Forms that lost none are not reported.
func EmitDroppedPatterns(ctx context.Context, formID string, n int) {
	if n <= 0 {
		return
	}
	emit(ctx, MetricDroppedPatterns, map[string]string{"form_id": formID}, int64(n))
}
