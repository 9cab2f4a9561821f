package bus

import "github.com/easycab-sim/central/core/model"

// RideRequest is consumed from TopicRequests. CustomerLocation is nil
// when the customer did not report a pickup point.
type RideRequest struct {
	CustomerID       string          `json:"customer_id"`
	Destination      string          `json:"destination"`
	CustomerLocation *model.Position `json:"customer_location"`
}

// TaxiUpdate is one telemetry event consumed from TopicUpdates.
type TaxiUpdate struct {
	TaxiID     int              `json:"taxi_id"`
	Position   model.Position   `json:"position"`
	Status     model.TaxiStatus `json:"status"`
	Color      model.Color      `json:"color"`
	CustomerID string           `json:"customer_id"`
}

// InstructionMove orders a taxi to pick up a customer and drive to the
// destination.
const InstructionMove = "MOVE"

// Instruction is published on TopicInstructions after an assignment.
type Instruction struct {
	TaxiID      int            `json:"taxi_id"`
	Instruction string         `json:"instruction"`
	Pickup      model.Position `json:"pickup"`
	Destination model.Position `json:"destination"`
	CustomerID  string         `json:"customer_id"`
}

// Customer response statuses.
const (
	ResponseOK  = "OK"
	ResponseKO  = "KO"
	ResponseEnd = "END"
)

// CustomerResponse is published on TopicResponses for assignments,
// rejections and trip completions.
type CustomerResponse struct {
	CustomerID   string `json:"customer_id"`
	Status       string `json:"status"`
	AssignedTaxi int    `json:"assigned_taxi,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// TaxiView is the per-taxi slice of a map broadcast.
type TaxiView struct {
	Position model.Position   `json:"position"`
	Status   model.TaxiStatus `json:"status"`
	Color    model.Color      `json:"color"`
}

// LocationView is the per-location slice of a map broadcast.
type LocationView struct {
	Position model.Position `json:"position"`
	Color    model.Color    `json:"color"`
}

// MapUpdate is the full world view published on TopicMap.
type MapUpdate struct {
	Map       [][]string              `json:"map"`
	Taxis     map[string]TaxiView     `json:"taxis"`
	Locations map[string]LocationView `json:"locations"`
}
