// Package mqtt mirrors the debug console to an MQTT broker, with abstraction
// for testing. The mirror is best effort: nothing in the device waits on it.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicConsole is the MQTT topic for debug console lines.
const TopicConsole = "twin-led/console"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "twin-led/system"

// Publisher mirrors console lines and lifecycle events to the broker.
type Publisher interface {
	// WriteLine queues a console line. It never blocks on the network and
	// drops nothing while the buffer has room.
	WriteLine(line string)

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	State     string // state machine state, empty if unknown
	LED1      bool
	LED2      bool
	Retained  bool // Whether the message should be retained by the broker
}

// ConsolePayload represents the MQTT message payload for a console line.
type ConsolePayload struct {
	Console ConsoleLine `json:"console"`
}

// ConsoleLine contains one debug console line.
type ConsoleLine struct {
	Timestamp string `json:"timestamp"`
	Line      string `json:"line"`
}

// FormatLinePayload creates the JSON payload for a console line.
func FormatLinePayload(ts time.Time, line string) ([]byte, error) {
	return json.Marshal(ConsolePayload{
		Console: ConsoleLine{
			Timestamp: ts.UTC().Format(time.RFC3339),
			Line:      line,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string    `json:"timestamp"`
	Event     string    `json:"event"`
	Reason    string    `json:"reason,omitempty"`
	State     string    `json:"state,omitempty"`
	LEDs      *LEDsJSON `json:"leds,omitempty"`
}

// LEDsJSON reports the last level written to each LED.
type LEDsJSON struct {
	LED1 bool `json:"led1"`
	LED2 bool `json:"led2"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// LED levels are only included when the state is known.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	inner := SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
		State:     event.State,
	}
	if event.State != "" {
		inner.LEDs = &LEDsJSON{LED1: event.LED1, LED2: event.LED2}
	}
	return json.Marshal(SystemPayload{System: inner})
}
