//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/twin-led/internal/logic"
)

// RealOutputs drives the two LED lines on actual hardware.
type RealOutputs struct {
	chip *gpiocdev.Chip
	led1 *outputLine
	led2 *outputLine
}

var _ logic.Line = (*outputLine)(nil)

type outputLine struct {
	line *gpiocdev.Line
}

func (o *outputLine) SetHigh() error { return o.line.SetValue(1) }
func (o *outputLine) SetLow() error  { return o.line.SetValue(0) }

// NewRealOutputs requests both LED lines as outputs, initially low.
func NewRealOutputs(chipName string, pinLED1, pinLED2 int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	l1, err := chip.RequestLine(pinLED1, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED1 pin %d: %w", pinLED1, err)
	}

	l2, err := chip.RequestLine(pinLED2, gpiocdev.AsOutput(0))
	if err != nil {
		l1.Close()
		chip.Close()
		return nil, fmt.Errorf("request LED2 pin %d: %w", pinLED2, err)
	}

	return &RealOutputs{
		chip: chip,
		led1: &outputLine{line: l1},
		led2: &outputLine{line: l2},
	}, nil
}

// Lines returns the LED1 and LED2 output lines.
func (r *RealOutputs) Lines() (logic.Line, logic.Line) {
	return r.led1, r.led2
}

// Close drives both LEDs low and releases the lines.
func (r *RealOutputs) Close() error {
	var errs []error

	for i, o := range []*outputLine{r.led1, r.led2} {
		if o == nil {
			continue
		}
		if err := o.SetLow(); err != nil {
			errs = append(errs, fmt.Errorf("clear LED%d: %w", i+1, err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED%d: %w", i+1, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealButtons reads the two buttons and delivers falling edges to a handler.
type RealButtons struct {
	chip *gpiocdev.Chip
	btn1 *gpiocdev.Line
	btn2 *gpiocdev.Line
}

// NewRealButtons requests both button lines as pulled-up inputs with
// falling-edge detection. onPress is called from the gpiocdev event
// goroutine and may be nil for read-only use. A non-zero debounce enables
// kernel debouncing on the lines.
func NewRealButtons(chipName string, pinBtn1, pinBtn2 int, debounce time.Duration, onPress PressHandler) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := func(b Button) []gpiocdev.LineReqOption {
		o := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}
		if debounce > 0 {
			o = append(o, gpiocdev.WithDebounce(debounce))
		}
		if onPress != nil {
			o = append(o, gpiocdev.WithFallingEdge, gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				if evt.Type == gpiocdev.LineEventFallingEdge {
					onPress(b)
				}
			}))
		}
		return o
	}

	l1, err := chip.RequestLine(pinBtn1, opts(Button1)...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button 1 pin %d: %w", pinBtn1, err)
	}

	l2, err := chip.RequestLine(pinBtn2, opts(Button2)...)
	if err != nil {
		l1.Close()
		chip.Close()
		return nil, fmt.Errorf("request button 2 pin %d: %w", pinBtn2, err)
	}

	return &RealButtons{
		chip: chip,
		btn1: l1,
		btn2: l2,
	}, nil
}

// Read returns whether each button is pressed.
// Inverts raw GPIO: raw low (0) = pressed, raw high (1) = released.
func (r *RealButtons) Read() (bool, bool, error) {
	raw1, err := r.btn1.Value()
	if err != nil {
		return false, false, fmt.Errorf("read button 1: %w", err)
	}

	raw2, err := r.btn2.Value()
	if err != nil {
		return false, false, fmt.Errorf("read button 2: %w", err)
	}

	return raw1 == 0, raw2 == 0, nil
}

// Close releases the button lines. No press is delivered after Close returns.
func (r *RealButtons) Close() error {
	var errs []error

	if r.btn1 != nil {
		if err := r.btn1.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button 1: %w", err))
		}
	}
	if r.btn2 != nil {
		if err := r.btn2.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button 2: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
