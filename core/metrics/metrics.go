package metrics

import "github.com/easycab-sim/central/core/events"

// Sink records coordinator events for observability purposes.
type Sink interface {
	RecordRequest(ev events.RequestHandled) error
	RecordTelemetry(ev events.TelemetryApplied) error
	RecordBroadcast(ev events.MapBroadcast) error
}

// CompletionRecorder is implemented by sinks able to record finished trips.
type CompletionRecorder interface {
	RecordCompletion(ev events.TripCompleted) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRequest(events.RequestHandled) error     { return nil }
func (NopSink) RecordTelemetry(events.TelemetryApplied) error { return nil }
func (NopSink) RecordBroadcast(events.MapBroadcast) error     { return nil }
func (NopSink) RecordCompletion(events.TripCompleted) error   { return nil }
