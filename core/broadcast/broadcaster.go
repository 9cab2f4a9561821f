// Package broadcast renders the city grid and republishes the world
// view whenever the registry has unbroadcast changes.
package broadcast

import (
	"context"
	"strconv"
	"time"

	"github.com/easycab-sim/central/core/bus"
	"github.com/easycab-sim/central/core/events"
	"github.com/easycab-sim/central/core/logger"
	"github.com/easycab-sim/central/core/model"
	"github.com/easycab-sim/central/core/registry"
	"github.com/easycab-sim/central/internal/eventbus"
)

// Config holds the renderer and poll settings.
type Config struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults applies the 20x20 grid and the 1s poll interval.
func (c *Config) SetDefaults() {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 1
	}
}

// Broadcaster polls the registry dirty flag and publishes a consistent
// snapshot of the world view on each change.
type Broadcaster struct {
	reg      *registry.Registry
	pub      bus.Publisher
	renderer Renderer
	interval time.Duration
	bus      eventbus.EventBus
	log      logger.Logger
}

// New creates a Broadcaster. The event bus may be nil.
func New(cfg Config, reg *registry.Registry, pub bus.Publisher, evb eventbus.EventBus, log logger.Logger) *Broadcaster {
	cfg.SetDefaults()
	return &Broadcaster{
		reg:      reg,
		pub:      pub,
		renderer: NewRenderer(cfg.Width, cfg.Height),
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		bus:      evb,
		log:      log,
	}
}

// Run polls until the context is cancelled. Publish failures are logged
// and left for the next dirty cycle, which retries with fresh state.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if b.reg.TakeDirty() {
				b.Broadcast()
			}
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast renders the current snapshot and publishes it as one
// message on the map topic.
func (b *Broadcaster) Broadcast() {
	snap := b.reg.Snapshot()
	grid := b.renderer.Render(snap)

	update := bus.MapUpdate{
		Map:       grid,
		Taxis:     make(map[string]bus.TaxiView, len(snap.Taxis)),
		Locations: make(map[string]bus.LocationView, len(snap.Locations)),
	}
	free := 0
	for id, t := range snap.Taxis {
		update.Taxis[strconv.Itoa(id)] = bus.TaxiView{Position: t.Position, Status: t.Status, Color: t.Color}
		if t.Status == model.StatusFree {
			free++
		}
	}
	for id, loc := range snap.Locations {
		update.Locations[id] = bus.LocationView{Position: loc.Position, Color: loc.Color}
	}

	if err := b.pub.Publish(bus.TopicMap, update); err != nil {
		// Re-flag so the next poll cycle retries with fresh state.
		b.reg.MarkDirty()
		b.log.Errorf("broadcast map: %v", err)
		return
	}
	b.log.Debugf("world view\n%s", Frame(grid))
	if b.bus != nil {
		b.bus.Publish(events.MapBroadcast{Taxis: len(snap.Taxis), Locations: len(snap.Locations), FreeTaxis: free})
	}
}
