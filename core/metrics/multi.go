package metrics

import (
	"errors"

	"github.com/easycab-sim/central/core/events"
)

// MultiSink fans every record out to several sinks, joining their errors.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordRequest(ev events.RequestHandled) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordRequest(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordTelemetry(ev events.TelemetryApplied) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordTelemetry(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordBroadcast(ev events.MapBroadcast) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordBroadcast(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordCompletion(ev events.TripCompleted) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(CompletionRecorder); ok {
			errs = append(errs, r.RecordCompletion(ev))
		}
	}
	return errors.Join(errs...)
}
