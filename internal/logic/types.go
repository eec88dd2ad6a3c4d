// Package logic contains the LED state machine.
// This package has NO external dependencies (no GPIO, OS, or time.Sleep).
// Output lines and the blocking delay are injected by the caller.
package logic

import "time"

// State is the current LED mode.
type State int

const (
	StateIdle State = iota
	StatePatternA
	StatePatternB
)

// String returns the name used in operational logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePatternA:
		return "PATTERN_A"
	case StatePatternB:
		return "PATTERN_B"
	}
	return "UNKNOWN"
}

// Index returns the number printed on the debug console ("Set <index>").
func (s State) Index() int {
	return int(s)
}

// Line is a binary output line. Implementations must not be shared with
// anything other than the System that owns them.
type Line interface {
	SetHigh() error
	SetLow() error
}

// Sleeper blocks the caller for d. It must not yield control to the state
// machine: nothing else runs the System while a sequence is sleeping.
type Sleeper func(d time.Duration)

// DefaultStep is the delay between pattern steps.
const DefaultStep = 300 * time.Millisecond
