package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/twin-led/internal/dispatch"
	"github.com/sweeney/twin-led/internal/gpio"
	"github.com/sweeney/twin-led/internal/logic"
	"github.com/sweeney/twin-led/internal/mqtt"
	"github.com/sweeney/twin-led/internal/shared"
)

type harness struct {
	ctx     *shared.Context
	d       *dispatch.Dispatcher
	led1    *gpio.FakeOutput
	led2    *gpio.FakeOutput
	buttons *gpio.FakeButtons
	pub     *mqtt.FakePublisher
}

func noSleep(time.Duration) {}

func newHarness(samples ...gpio.Sample) *harness {
	h := &harness{
		ctx:     shared.New(),
		led1:    gpio.NewFakeOutput(),
		led2:    gpio.NewFakeOutput(),
		buttons: gpio.NewFakeButtons(samples),
		pub:     mqtt.NewFakePublisher(),
	}
	h.ctx.InitConsole(h.pub)
	h.ctx.InitSystem(logic.NewSystem(h.led1, h.led2, logic.DefaultStep, noSleep))
	h.d = dispatch.New(h.ctx, h.buttons, dispatch.DefaultDebounce, noSleep)
	h.buttons.Watch(h.d.HandlePress)
	return h
}

// runRunLoop drives runLoop for nTicks ticks, calling before(i) ahead of
// tick i, then delivers signal and returns runLoop's error.
func runRunLoop(t *testing.T, h *harness, nTicks int, before func(i int), signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(h.d, h.ctx, h.pub, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		if before != nil {
			before(i)
		}
		tick <- time.Time{}
	}
	sig <- signal

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return after signal")
		return nil
	}
}

func TestRunLoopIdleWithoutInput(t *testing.T) {
	h := newHarness(gpio.Released)

	err := runRunLoop(t, h, 10, nil, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if h.led1.High || h.led2.High {
		t.Errorf("expected both LEDs low, got (%v, %v)", h.led1.High, h.led2.High)
	}
	if len(h.pub.Lines) != 0 {
		t.Errorf("expected no console lines while idle, got %v", h.pub.Lines)
	}

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	ev := h.pub.SystemEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "SIGTERM" {
		t.Errorf("expected SHUTDOWN/SIGTERM, got %s/%s", ev.Event, ev.Reason)
	}
	if ev.State != "IDLE" {
		t.Errorf("expected state IDLE, got %s", ev.State)
	}
	if !ev.Retained {
		t.Error("shutdown event should be retained")
	}
}

func TestRunLoopButton1Press(t *testing.T) {
	h := newHarness(gpio.Sample{B1: true})

	err := runRunLoop(t, h, 3, func(i int) {
		if i == 1 {
			h.buttons.Press(gpio.Button1)
		}
	}, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(h.pub.Lines) != 1 || h.pub.Lines[0] != "Set 1" {
		t.Errorf("expected [Set 1], got %v", h.pub.Lines)
	}
	if !h.led1.High || !h.led2.High {
		t.Errorf("expected both LEDs high, got (%v, %v)", h.led1.High, h.led2.High)
	}

	ev := h.pub.SystemEvents[0]
	if ev.Reason != "SIGINT" {
		t.Errorf("expected SIGINT, got %s", ev.Reason)
	}
	if ev.State != "PATTERN_A" || !ev.LED1 || !ev.LED2 {
		t.Errorf("unexpected shutdown snapshot: %+v", ev)
	}
}

func TestRunLoopPressThenRelease(t *testing.T) {
	samples := []gpio.Sample{{B2: true}, {B2: true}, gpio.Released}
	h := newHarness(samples...)

	err := runRunLoop(t, h, 4, func(i int) {
		if i == 0 {
			h.buttons.Press(gpio.Button2)
		}
	}, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	want := []string{"Set 2", "Set 0"}
	if len(h.pub.Lines) != len(want) {
		t.Fatalf("expected %v, got %v", want, h.pub.Lines)
	}
	for i := range want {
		if h.pub.Lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, h.pub.Lines[i], want[i])
		}
	}
	if h.led1.High || h.led2.High {
		t.Errorf("expected both LEDs low after release, got (%v, %v)", h.led1.High, h.led2.High)
	}
}

func TestRunLoopShutdownPublishError(t *testing.T) {
	h := newHarness(gpio.Released)
	h.pub.PublishSystemError = errors.New("broker down")

	err := runRunLoop(t, h, 1, nil, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("publish failure should not fail runLoop: %v", err)
	}
}

func TestRunLoopWithoutPublisher(t *testing.T) {
	h := newHarness(gpio.Released)

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(h.d, h.ctx, nil, tick, sig)
	}()

	tick <- time.Time{}
	sig <- syscall.SIGHUP

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func TestSystemEventUninitialized(t *testing.T) {
	ev := systemEvent(shared.New(), "STARTUP", "")

	if ev.State != "" {
		t.Errorf("expected empty state without a system, got %s", ev.State)
	}
	if ev.Event != "STARTUP" || !ev.Retained {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestPressedString(t *testing.T) {
	if pressedString(true) != "PRESSED" {
		t.Error("expected PRESSED")
	}
	if pressedString(false) != "RELEASED" {
		t.Error("expected RELEASED")
	}
}

func TestLazyButtons(t *testing.T) {
	lazy := &lazyButtons{}
	fake := gpio.NewFakeButtons([]gpio.Sample{{B1: true}})
	lazy.Buttons = fake

	b1, b2, err := lazy.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b1 || b2 {
		t.Errorf("expected (true, false), got (%v, %v)", b1, b2)
	}
}
