package live

import (
	"encoding/json"
	"fmt"
)

// EventType discriminates push-channel events.
type EventType string

const (
	// EventConnected is sent by the server once after the channel opens.
	EventConnected EventType = "Connected"
	// EventReload signals that the server recompiled its ledger source
	// and every dependent view is now stale.
	EventReload EventType = "Reload"
	// EventNewVersionFound advertises a newer server release. Display
	// only; nothing is invalidated.
	EventNewVersionFound EventType = "NewVersionFound"
)

// Event is one decoded push-channel frame.
type Event struct {
	Type    EventType `json:"type"`
	Version string    `json:"version,omitempty"`
}

func decodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding push event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("push event without type: %s", data)
	}
	return e, nil
}
