package dispatch

import (
	"encoding/json"
	"errors"

	"github.com/easycab-sim/central/core/bus"
	"github.com/easycab-sim/central/core/logger"
)

// RequestHandler decodes ride requests and drives the engine. Malformed
// payloads and business rejections are logged; nothing terminates the
// ingestion loop.
func RequestHandler(e *Engine, log logger.Logger) bus.Handler {
	return func(payload []byte) {
		var req bus.RideRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Errorf("invalid ride request: %v", err)
			return
		}
		log.Infof("ride request from customer %s to %s", req.CustomerID, req.Destination)
		if err := e.HandleRequest(req); err != nil {
			if errors.Is(err, ErrUnknownDestination) || errors.Is(err, ErrNoAvailableTaxi) {
				log.Warnf("request rejected: %v", err)
				return
			}
			log.Errorf("request failed: %v", err)
		}
	}
}

// UpdateHandler decodes taxi telemetry and applies it to the registry.
func UpdateHandler(e *Engine, log logger.Logger) bus.Handler {
	return func(payload []byte) {
		var u bus.TaxiUpdate
		if err := json.Unmarshal(payload, &u); err != nil {
			log.Errorf("invalid taxi update: %v", err)
			return
		}
		if err := e.ApplyUpdate(u); err != nil && !errors.Is(err, ErrUnknownTaxi) {
			log.Errorf("update failed: %v", err)
		}
	}
}
