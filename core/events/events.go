// Package events defines the in-process events emitted by the dispatch
// engine and the broadcaster. The app's metrics recorder subscribes to
// them; nothing in the domain depends on who listens.
package events

import "github.com/easycab-sim/central/core/model"

// Request outcomes.
const (
	OutcomeAssigned           = "assigned"
	OutcomeUnknownDestination = "unknown_destination"
	OutcomeNoAvailableTaxi    = "no_available_taxi"
)

// RequestHandled is emitted once per consumed ride request.
type RequestHandled struct {
	CustomerID string
	TaxiID     int
	Outcome    string
}

// TelemetryApplied is emitted once per consumed taxi update.
type TelemetryApplied struct {
	TaxiID int
	Status model.TaxiStatus
	Known  bool
}

// TripCompleted is emitted when a taxi reports END and is recycled.
type TripCompleted struct {
	TaxiID     int
	CustomerID string
}

// MapBroadcast is emitted after each published world view.
type MapBroadcast struct {
	Taxis     int
	Locations int
	FreeTaxis int
}
