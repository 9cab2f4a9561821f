package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/easycab-sim/central/core/events"
	coremetrics "github.com/easycab-sim/central/core/metrics"
)

// PromSink records coordinator events in Prometheus metrics.
type PromSink struct {
	requests    *prometheus.CounterVec
	telemetry   *prometheus.CounterVec
	completions prometheus.Counter
	broadcasts  prometheus.Counter
	freeTaxis   prometheus.Gauge
}

// NewPromSink registers the coordinator metrics on the default
// Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "central_ride_requests_total",
		Help: "Ride requests consumed, labelled by outcome",
	}, []string{"outcome"})
	telemetry := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "central_telemetry_events_total",
		Help: "Taxi telemetry events consumed",
	}, []string{"known"})
	completions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "central_trips_completed_total",
		Help: "Trips reported END and recycled",
	})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "central_map_broadcasts_total",
		Help: "World-view messages published",
	})
	freeTaxis := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "central_free_taxis",
		Help: "FREE taxis at the last broadcast",
	})

	for _, c := range []prometheus.Collector{requests, telemetry, completions, broadcasts, freeTaxis} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{
		requests:    requests,
		telemetry:   telemetry,
		completions: completions,
		broadcasts:  broadcasts,
		freeTaxis:   freeTaxis,
	}, nil
}

var _ coremetrics.Sink = (*PromSink)(nil)
var _ coremetrics.CompletionRecorder = (*PromSink)(nil)

func (s *PromSink) RecordRequest(ev events.RequestHandled) error {
	s.requests.WithLabelValues(ev.Outcome).Inc()
	return nil
}

func (s *PromSink) RecordTelemetry(ev events.TelemetryApplied) error {
	s.telemetry.WithLabelValues(strconv.FormatBool(ev.Known)).Inc()
	return nil
}

func (s *PromSink) RecordCompletion(events.TripCompleted) error {
	s.completions.Inc()
	return nil
}

func (s *PromSink) RecordBroadcast(ev events.MapBroadcast) error {
	s.broadcasts.Inc()
	s.freeTaxis.Set(float64(ev.FreeTaxis))
	return nil
}
