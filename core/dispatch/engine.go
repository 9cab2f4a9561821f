// Package dispatch matches customer ride requests to free taxis and
// applies taxi telemetry to the registry.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/easycab-sim/central/core/bus"
	"github.com/easycab-sim/central/core/events"
	"github.com/easycab-sim/central/core/logger"
	"github.com/easycab-sim/central/core/model"
	"github.com/easycab-sim/central/core/registry"
	"github.com/easycab-sim/central/internal/eventbus"
)

// Business rejections surfaced to the customer, never raised as faults.
var (
	ErrUnknownDestination = errors.New("unknown destination")
	ErrNoAvailableTaxi    = errors.New("no available taxi")
)

// ErrUnknownTaxi marks telemetry for an id not in the registry. Such
// events are logged and discarded.
var ErrUnknownTaxi = errors.New("unknown taxi")

// Saver persists a fleet snapshot. Implemented by infra/store.FileStore.
type Saver interface {
	SaveTaxis(taxis map[int]model.Taxi) error
}

// Engine owns the matching algorithm and the telemetry application. All
// state lives in the registry; the engine itself is stateless and safe
// for concurrent use by both ingestion loops.
type Engine struct {
	reg   *registry.Registry
	saver Saver
	pub   bus.Publisher
	bus   eventbus.EventBus
	log   logger.Logger
}

// New creates an Engine. The event bus may be nil when no recorder is
// attached.
func New(reg *registry.Registry, saver Saver, pub bus.Publisher, evb eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if reg == nil || saver == nil || pub == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to New")
	}
	return &Engine{reg: reg, saver: saver, pub: pub, bus: evb, log: log}, nil
}

// HandleRequest processes one ride request. Rejections are answered on
// the response topic with status KO and returned as wrapped sentinel
// errors; they never mutate taxi state. A redelivered request resolves
// to the customer's existing assignment and re-acknowledges it, so the
// handler is idempotent under re-application.
func (e *Engine) HandleRequest(req bus.RideRequest) error {
	if req.CustomerLocation != nil {
		e.reg.UpsertLocation(model.Location{
			ID:       model.CustomerLocationID(req.CustomerID),
			Position: *req.CustomerLocation,
			Color:    model.ColorYellow,
		})
	}

	dest, ok := e.reg.GetLocation(req.Destination)
	if !ok {
		e.reject(req.CustomerID, events.OutcomeUnknownDestination)
		return fmt.Errorf("customer %s: %w: %q", req.CustomerID, ErrUnknownDestination, req.Destination)
	}

	taxi, err := e.reg.AssignFirstFree(req.CustomerID)
	if err != nil {
		e.reject(req.CustomerID, events.OutcomeNoAvailableTaxi)
		return fmt.Errorf("customer %s: %w", req.CustomerID, ErrNoAvailableTaxi)
	}

	e.persist()
	e.notify(bus.CustomerResponse{
		CustomerID:   req.CustomerID,
		Status:       bus.ResponseOK,
		AssignedTaxi: taxi.ID,
	})
	instruction := bus.Instruction{
		TaxiID:      taxi.ID,
		Instruction: bus.InstructionMove,
		Pickup:      e.pickupPosition(req, taxi, dest),
		Destination: dest.Position,
		CustomerID:  req.CustomerID,
	}
	if err := e.pub.Publish(bus.TopicInstructions, instruction); err != nil {
		e.log.Errorf("publish instruction for taxi %d: %v", taxi.ID, err)
	} else {
		e.log.Infof("taxi %d dispatched to customer %s, destination %s", taxi.ID, req.CustomerID, req.Destination)
	}
	e.emit(events.RequestHandled{CustomerID: req.CustomerID, TaxiID: taxi.ID, Outcome: events.OutcomeAssigned})
	return nil
}

// pickupPosition resolves where the taxi must collect the customer:
// the position sent with the request, else a previously registered
// pickup point, else the destination itself as a degenerate fallback.
func (e *Engine) pickupPosition(req bus.RideRequest, taxi model.Taxi, dest model.Location) model.Position {
	if req.CustomerLocation != nil {
		return *req.CustomerLocation
	}
	if loc, ok := e.reg.GetLocation(model.CustomerLocationID(req.CustomerID)); ok {
		return loc.Position
	}
	e.log.Warnf("customer %s has no known pickup point, using destination %s", req.CustomerID, dest.ID)
	return dest.Position
}

// ApplyUpdate overwrites a taxi's state from one telemetry event. When
// the event reports END the bound customer is notified and the taxi is
// recycled to FREE, so the fleet is reusable. Re-applying the same event
// converges to the same registry state.
func (e *Engine) ApplyUpdate(u bus.TaxiUpdate) error {
	completed := false
	ok := e.reg.MutateTaxi(u.TaxiID, func(t *model.Taxi) {
		t.Position = u.Position
		t.Status = u.Status
		t.Color = u.Color
		t.CustomerID = u.CustomerID
		if u.Status == model.StatusEnd {
			completed = true
			t.Status = model.StatusFree
			t.Color = model.ColorRed
			t.CustomerID = ""
		}
	})
	if !ok {
		e.log.Warnf("discarding telemetry for unknown taxi %d", u.TaxiID)
		e.emit(events.TelemetryApplied{TaxiID: u.TaxiID, Status: u.Status, Known: false})
		return fmt.Errorf("%w: %d", ErrUnknownTaxi, u.TaxiID)
	}

	if completed {
		e.notify(bus.CustomerResponse{
			CustomerID:   u.CustomerID,
			Status:       bus.ResponseEnd,
			AssignedTaxi: u.TaxiID,
		})
		e.reg.RemoveLocation(model.CustomerLocationID(u.CustomerID))
		e.log.Infof("taxi %d completed trip for customer %s", u.TaxiID, u.CustomerID)
		e.emit(events.TripCompleted{TaxiID: u.TaxiID, CustomerID: u.CustomerID})
	}
	e.persist()
	e.emit(events.TelemetryApplied{TaxiID: u.TaxiID, Status: u.Status, Known: true})
	return nil
}

// persist writes the current fleet snapshot to disk. The file is a
// durability sink; failures are logged and never abort the operation.
func (e *Engine) persist() {
	if err := e.saver.SaveTaxis(e.reg.Snapshot().Taxis); err != nil {
		e.log.Errorf("persist fleet: %v", err)
	}
}

func (e *Engine) reject(customerID, outcome string) {
	e.notify(bus.CustomerResponse{CustomerID: customerID, Status: bus.ResponseKO, Reason: outcome})
	e.emit(events.RequestHandled{CustomerID: customerID, Outcome: outcome})
}

func (e *Engine) notify(resp bus.CustomerResponse) {
	if err := e.pub.Publish(bus.TopicResponses, resp); err != nil {
		e.log.Errorf("publish response to customer %s: %v", resp.CustomerID, err)
	}
}

func (e *Engine) emit(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
