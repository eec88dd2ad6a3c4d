// Package gpio provides LED outputs and button inputs with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
// LED lines satisfy logic.Line.
package gpio

// Button identifies one of the two push buttons.
type Button int

const (
	Button1 Button = 1
	Button2 Button = 2
)

// PressHandler is called from the edge event goroutine on every falling edge
// (press) of a button. It must return quickly.
type PressHandler func(b Button)

// Buttons reads the current level of both buttons.
type Buttons interface {
	// Read returns whether each button is currently pressed.
	// The raw GPIO values are inverted: buttons are active-low with pull-up,
	// so raw 0 = pressed.
	Read() (b1Pressed, b2Pressed bool, err error)

	// Close releases GPIO resources and stops edge delivery.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultChip    = "gpiochip0"
	DefaultPinLED1 = 7
	DefaultPinLED2 = 8
	DefaultPinBtn1 = 2
	DefaultPinBtn2 = 3
)
