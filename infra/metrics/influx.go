package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/easycab-sim/central/core/events"
	coremetrics "github.com/easycab-sim/central/core/metrics"
	"github.com/easycab-sim/central/infra/logger"
)

// InfluxSink writes coordinator events to InfluxDB using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx_sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and falls back
// to a NopSink when the health check fails, so a missing time-series
// backend never blocks the coordinator.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

var _ coremetrics.Sink = (*InfluxSink)(nil)
var _ coremetrics.CompletionRecorder = (*InfluxSink)(nil)

func (s *InfluxSink) RecordRequest(ev events.RequestHandled) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("ride_request").
		AddTag("outcome", ev.Outcome).
		AddTag("customer_id", ev.CustomerID).
		AddField("taxi_id", ev.TaxiID).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordTelemetry(ev events.TelemetryApplied) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("taxi_telemetry").
		AddTag("taxi_id", strconv.Itoa(ev.TaxiID)).
		AddTag("known", strconv.FormatBool(ev.Known)).
		AddField("status", string(ev.Status)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordCompletion(ev events.TripCompleted) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_completed").
		AddTag("taxi_id", strconv.Itoa(ev.TaxiID)).
		AddField("customer_id", ev.CustomerID).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordBroadcast(ev events.MapBroadcast) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("map_broadcast").
		AddField("taxis", ev.Taxis).
		AddField("locations", ev.Locations).
		AddField("free_taxis", ev.FreeTaxis).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
