//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/twin-led/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(chipName string, pinLED1, pinLED2 int) (*RealOutputs, error) {
	return nil, errUnsupported
}

// Lines is not implemented on non-Linux platforms.
func (r *RealOutputs) Lines() (logic.Line, logic.Line) {
	return nil, nil
}

// Close is not implemented on non-Linux platforms.
func (r *RealOutputs) Close() error {
	return nil
}

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chipName string, pinBtn1, pinBtn2 int, debounce time.Duration, onPress PressHandler) (*RealButtons, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealButtons) Read() (bool, bool, error) {
	return false, false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealButtons) Close() error {
	return nil
}
