// Package app wires the coordinator together: registry, dispatch
// engine, ingestion subscriptions, broadcaster, authentication gateway
// and observability sinks.
package app

import (
	"context"
	"fmt"

	"github.com/easycab-sim/central/config"
	"github.com/easycab-sim/central/core/broadcast"
	"github.com/easycab-sim/central/core/bus"
	"github.com/easycab-sim/central/core/dispatch"
	"github.com/easycab-sim/central/core/events"
	coremetrics "github.com/easycab-sim/central/core/metrics"
	"github.com/easycab-sim/central/core/registry"
	"github.com/easycab-sim/central/infra/authgate"
	"github.com/easycab-sim/central/infra/logger"
	"github.com/easycab-sim/central/infra/metrics"
	"github.com/easycab-sim/central/infra/mqtt"
	"github.com/easycab-sim/central/infra/store"
	"github.com/easycab-sim/central/internal/eventbus"
)

// Service is the assembled coordinator.
type Service struct {
	cfg         *config.Config
	reg         *registry.Registry
	engine      *dispatch.Engine
	broadcaster *broadcast.Broadcaster
	gate        *authgate.Server
	client      bus.Client
	bus         *eventbus.Bus
	sink        coremetrics.Sink
	log         logger.Logger
}

// New builds a Service from the configuration. The broker must be
// reachable at launch; everything later is retried, never fatal.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("central")

	fileStore := store.New(cfg.Data, logger.New("store"))
	taxis, err := fileStore.LoadTaxis()
	if err != nil {
		return nil, fmt.Errorf("load taxis: %w", err)
	}
	locations, err := fileStore.LoadLocations()
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	reg := registry.NewFrom(taxis, locations)
	log.Infof("fleet loaded: %d taxis, %d locations", len(taxis), len(locations))

	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	evb := eventbus.New()
	engine, err := dispatch.New(reg, fileStore, client, evb, logger.New("dispatch"))
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:         cfg,
		reg:         reg,
		engine:      engine,
		broadcaster: broadcast.New(cfg.Map, reg, client, evb, logger.New("broadcast")),
		gate:        authgate.New(cfg.Auth, fileStore, logger.New("authgate")),
		client:      client,
		bus:         evb,
		sink:        sink,
		log:         log,
	}, nil
}

// Run starts every loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.client.Subscribe(bus.TopicRequests, dispatch.RequestHandler(s.engine, logger.New("requests"))); err != nil {
		return err
	}
	if err := s.client.Subscribe(bus.TopicUpdates, dispatch.UpdateHandler(s.engine, logger.New("updates"))); err != nil {
		return err
	}

	go s.broadcaster.Run(ctx)
	go s.recordEvents(ctx)
	go func() {
		if err := s.gate.Run(ctx); err != nil {
			s.log.Errorf("auth gateway: %v", err)
		}
	}()
	if s.prometheusEnabled() {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	// Flag the loaded state so the first poll cycle publishes the
	// initial world view.
	s.reg.MarkDirty()
	s.log.Infof("central coordinator running")
	<-ctx.Done()
	return nil
}

// recordEvents drains the in-process bus into the metrics sink.
func (s *Service) recordEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			s.record(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) record(ev eventbus.Event) {
	var err error
	switch e := ev.(type) {
	case events.RequestHandled:
		err = s.sink.RecordRequest(e)
	case events.TelemetryApplied:
		err = s.sink.RecordTelemetry(e)
	case events.MapBroadcast:
		err = s.sink.RecordBroadcast(e)
	case events.TripCompleted:
		if r, ok := s.sink.(coremetrics.CompletionRecorder); ok {
			err = r.RecordCompletion(e)
		}
	}
	if err != nil {
		s.log.Errorf("metrics record: %v", err)
	}
}

func (s *Service) prometheusEnabled() bool {
	if s.cfg.Metrics.PrometheusPort == "" {
		return false
	}
	for _, sink := range s.cfg.Metrics.Sinks {
		if sink.Type == "prometheus" {
			return true
		}
	}
	return false
}

// Close releases the broker connection and the event bus.
func (s *Service) Close() error {
	s.client.Close()
	s.bus.Close()
	return nil
}
