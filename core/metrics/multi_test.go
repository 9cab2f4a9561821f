package metrics

import (
	"errors"
	"testing"

	"github.com/easycab-sim/central/core/events"
)

type countingSink struct {
	requests, telemetry, broadcasts, completions int
	err                                          error
}

func (s *countingSink) RecordRequest(events.RequestHandled) error {
	s.requests++
	return s.err
}

func (s *countingSink) RecordTelemetry(events.TelemetryApplied) error {
	s.telemetry++
	return s.err
}

func (s *countingSink) RecordBroadcast(events.MapBroadcast) error {
	s.broadcasts++
	return s.err
}

func (s *countingSink) RecordCompletion(events.TripCompleted) error {
	s.completions++
	return s.err
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)

	if err := m.RecordRequest(events.RequestHandled{}); err != nil {
		t.Fatalf("record request: %v", err)
	}
	if err := m.RecordTelemetry(events.TelemetryApplied{}); err != nil {
		t.Fatalf("record telemetry: %v", err)
	}
	if err := m.RecordBroadcast(events.MapBroadcast{}); err != nil {
		t.Fatalf("record broadcast: %v", err)
	}
	if err := m.RecordCompletion(events.TripCompleted{}); err != nil {
		t.Fatalf("record completion: %v", err)
	}
	for _, s := range []*countingSink{a, b} {
		if s.requests != 1 || s.telemetry != 1 || s.broadcasts != 1 || s.completions != 1 {
			t.Fatalf("fan-out incomplete: %+v", s)
		}
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	bad := &countingSink{err: errors.New("sink down")}
	m := NewMultiSink(&countingSink{}, bad)
	if err := m.RecordRequest(events.RequestHandled{}); err == nil {
		t.Fatalf("expected joined error")
	}
}

func TestNewSinkEmptyIsNop(t *testing.T) {
	s, err := NewSink(nil)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("want NopSink, got %T", s)
	}
}
