package api

import (
	"encoding/json"
	"fmt"
)

// Envelope is the framing for every websocket message in both directions.
// Event selects the payload shape, Data carries the payload verbatim.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope for the given event name.
func NewEnvelope(event string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return &Envelope{Event: event, Data: data}, nil
}
