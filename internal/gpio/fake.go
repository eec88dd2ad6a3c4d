package gpio

import (
	"errors"
	"sync"
)

// FakeOutput is a test double that records every level written to it.
type FakeOutput struct {
	// High is the current level.
	High bool

	// Writes contains every level written, in order.
	Writes []bool

	// WriteError, if set, is returned by SetHigh and SetLow and the level is
	// left unchanged.
	WriteError error

	// OnWrite, if set, is called after each successful write.
	OnWrite func(high bool)
}

// NewFakeOutput creates a FakeOutput at low level.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// SetHigh records a high write.
func (f *FakeOutput) SetHigh() error {
	return f.set(true)
}

// SetLow records a low write.
func (f *FakeOutput) SetLow() error {
	return f.set(false)
}

func (f *FakeOutput) set(high bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.High = high
	f.Writes = append(f.Writes, high)
	if f.OnWrite != nil {
		f.OnWrite(high)
	}
	return nil
}

// FakeButtons is a test double that returns scripted button levels and lets
// tests fire press edges.
type FakeButtons struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	mu      sync.Mutex
	onPress PressHandler
}

// Sample represents a single reading of both buttons (already in logical form).
type Sample struct {
	B1 bool // true = pressed
	B2 bool // true = pressed
}

// Released is the sample with both buttons up.
var Released = Sample{}

// NewFakeButtons creates FakeButtons with the given samples.
func NewFakeButtons(samples []Sample) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.B1, sample.B2, nil
}

// Watch registers the handler that Press delivers to.
func (f *FakeButtons) Watch(h PressHandler) {
	f.mu.Lock()
	f.onPress = h
	f.mu.Unlock()
}

// Press simulates a falling edge on b. It is a no-op when no handler is
// registered or after Close.
func (f *FakeButtons) Press(b Button) {
	f.mu.Lock()
	h := f.onPress
	f.mu.Unlock()
	if h != nil {
		h(b)
	}
}

// Close marks the buttons as closed and stops edge delivery.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	f.onPress = nil
	f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset rewinds the samples to the beginning.
func (f *FakeButtons) Reset() {
	f.index = 0
	f.Closed = false
}
