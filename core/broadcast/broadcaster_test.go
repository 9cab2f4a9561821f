package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycab-sim/central/core/bus"
	"github.com/easycab-sim/central/core/model"
	"github.com/easycab-sim/central/core/registry"
	"github.com/easycab-sim/central/infra/logger"
	"github.com/easycab-sim/central/infra/mqtt"
)

func testRegistry() *registry.Registry {
	return registry.NewFrom(map[int]model.Taxi{
		1: {ID: 1, Status: model.StatusFree, Color: model.ColorRed, Position: model.Position{X: 1, Y: 1}},
		2: {ID: 2, Status: model.StatusBusy, Color: model.ColorGreen, CustomerID: "c1", Position: model.Position{X: 5, Y: 5}},
	}, map[string]model.Location{
		"A": {ID: "A", Position: model.Position{X: 2, Y: 2}, Color: model.ColorBlue},
	})
}

func TestBroadcast_PublishesWorldView(t *testing.T) {
	reg := testRegistry()
	pub := mqtt.NewRecorder()
	b := New(Config{}, reg, pub, nil, logger.NopLogger{})

	b.Broadcast()

	messages := pub.Messages(bus.TopicMap)
	require.Len(t, messages, 1)
	update := messages[0].(bus.MapUpdate)
	assert.Len(t, update.Map, DefaultHeight)
	assert.Equal(t, "1", update.Map[1][1])
	assert.Equal(t, "A", update.Map[2][2])
	require.Contains(t, update.Taxis, "2")
	assert.Equal(t, model.StatusBusy, update.Taxis["2"].Status)
	require.Contains(t, update.Locations, "A")
	assert.Equal(t, model.ColorBlue, update.Locations["A"].Color)
}

func TestBroadcast_FailureKeepsRegistryDirty(t *testing.T) {
	reg := testRegistry()
	reg.MarkDirty()
	pub := mqtt.NewRecorder()
	pub.Fail(true)
	b := New(Config{}, reg, pub, nil, logger.NopLogger{})

	reg.TakeDirty()
	b.Broadcast()

	assert.True(t, reg.TakeDirty(), "failed publish must re-flag the registry")
}

func TestRun_PublishesOnDirtyOnly(t *testing.T) {
	reg := testRegistry()
	pub := mqtt.NewRecorder()
	b := New(Config{}, reg, pub, nil, logger.NopLogger{})
	b.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	reg.MarkDirty()
	require.Eventually(t, func() bool {
		return len(pub.Messages(bus.TopicMap)) == 1
	}, time.Second, 5*time.Millisecond)

	// No further mutations: the count must stay put.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, pub.Messages(bus.TopicMap), 1)

	cancel()
	<-done
}
