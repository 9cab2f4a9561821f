package model

import (
	"encoding/json"
	"fmt"
)

// TaxiStatus is the lifecycle state of a taxi.
type TaxiStatus string

const (
	StatusFree TaxiStatus = "FREE"
	StatusBusy TaxiStatus = "BUSY"
	StatusEnd  TaxiStatus = "END"
)

// Color is the marker color used on the rendered map. RED/GREEN mark a
// stopped or moving taxi, BLUE a static waypoint and YELLOW an ephemeral
// customer pickup point.
type Color string

const (
	ColorRed    Color = "RED"
	ColorGreen  Color = "GREEN"
	ColorBlue   Color = "BLUE"
	ColorYellow Color = "YELLOW"
)

// Position is a cell on the grid. It marshals as the two-element array
// [x, y] used by all bus payloads.
type Position struct {
	X int
	Y int
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var coords [2]int
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	p.X, p.Y = coords[0], coords[1]
	return nil
}

// In reports whether the position lies within a width x height grid.
func (p Position) In(width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

// Taxi is the authoritative record for one fleet member. CustomerID is
// empty unless the taxi is BUSY or has just reported END.
type Taxi struct {
	ID         int
	Status     TaxiStatus
	Color      Color
	Position   Position
	CustomerID string
}

// Validate checks the status/customer binding invariant.
func (t Taxi) Validate() error {
	switch t.Status {
	case StatusFree:
		if t.CustomerID != "" {
			return fmt.Errorf("taxi %d: FREE with customer %q", t.ID, t.CustomerID)
		}
	case StatusBusy, StatusEnd:
		if t.CustomerID == "" {
			return fmt.Errorf("taxi %d: %s without a customer", t.ID, t.Status)
		}
	default:
		return fmt.Errorf("taxi %d: unknown status %q", t.ID, t.Status)
	}
	return nil
}

// Location is a named point on the grid. Static waypoints are BLUE and
// immutable after load; customer pickup points are YELLOW and live only
// for the duration of a trip.
type Location struct {
	ID       string
	Position Position
	Color    Color
}

// CustomerLocationID derives the registry key for a customer's ephemeral
// pickup location.
func CustomerLocationID(customerID string) string {
	return "customer_" + customerID
}
