// Package mqtt publishes print-kiosk telemetry with abstraction for
// testing. Telemetry is optional; the device works fully without a broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for print activity events.
const Topic = "tabletop/scryfall-thermal/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "tabletop/scryfall-thermal/system"

// EventType classifies a print activity event.
type EventType string

const (
	// EventSelected is published when the button confirms a mana value.
	EventSelected EventType = "SELECTED"
	// EventPrinted is published after a receipt reaches the transport.
	EventPrinted EventType = "PRINTED"
	// EventFailed is published when a lookup, render, or print fails.
	EventFailed EventType = "FAILED"
)

// Event is one print activity record.
type Event struct {
	Timestamp time.Time
	Type      EventType
	ManaValue int
	Card      string // card name, when known
	Detail    string // failure detail for EventFailed
}

// SystemEvent is a lifecycle record (startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g. "STARTUP", "SHUTDOWN"
	Reason    string // e.g. "SIGTERM" (shutdown only)
	Retained  bool

	// RawPayload, when set, is published verbatim instead of the
	// default envelope. Used to attach a full status snapshot.
	RawPayload []byte
}

// Publisher publishes events to a broker.
type Publisher interface {
	// Publish sends a print activity event. Returns an error if
	// publishing fails (must not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Payload is the JSON envelope for activity events.
type Payload struct {
	Receipt ReceiptPayload `json:"receipt"`
}

// ReceiptPayload carries the event details.
type ReceiptPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	ManaValue int    `json:"mana_value"`
	Card      string `json:"card,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// FormatPayload creates the JSON payload for an activity event.
func FormatPayload(event Event) ([]byte, error) {
	return json.Marshal(Payload{
		Receipt: ReceiptPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			ManaValue: event.ManaValue,
			Card:      event.Card,
			Detail:    event.Detail,
		},
	})
}

// SystemPayload is the JSON envelope for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner carries the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
