package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycab-sim/central/core/events"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordRequest(events.RequestHandled{Outcome: events.OutcomeAssigned}))
	require.NoError(t, sink.RecordRequest(events.RequestHandled{Outcome: events.OutcomeNoAvailableTaxi}))
	require.NoError(t, sink.RecordTelemetry(events.TelemetryApplied{Known: true}))
	require.NoError(t, sink.RecordCompletion(events.TripCompleted{TaxiID: 1}))
	require.NoError(t, sink.RecordBroadcast(events.MapBroadcast{FreeTaxis: 3}))

	assert.Equal(t, float64(1), testutil.ToFloat64(sink.requests.WithLabelValues(events.OutcomeAssigned)))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.requests.WithLabelValues(events.OutcomeNoAvailableTaxi)))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.telemetry.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.completions))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.broadcasts))
	assert.Equal(t, float64(3), testutil.ToFloat64(sink.freeTaxis))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(reg)
	assert.NoError(t, err, "re-registration must reuse existing collectors")
}
