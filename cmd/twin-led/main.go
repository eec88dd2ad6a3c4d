// Command twin-led drives two LEDs through three patterns selected by two push buttons.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/twin-led/internal/console"
	"github.com/sweeney/twin-led/internal/dispatch"
	"github.com/sweeney/twin-led/internal/gpio"
	"github.com/sweeney/twin-led/internal/logic"
	"github.com/sweeney/twin-led/internal/mqtt"
	"github.com/sweeney/twin-led/internal/shared"
)

type config struct {
	chip         string
	pinLED1      int
	pinLED2      int
	pinBtn1      int
	pinBtn2      int
	poll         time.Duration
	debounce     time.Duration
	edgeDebounce time.Duration
	step         time.Duration
	consolePath  string
	consoleQueue int
	logBroker    string
	printState   bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.chip, "chip", gpio.DefaultChip, "GPIO chip name")
	flag.IntVar(&cfg.pinLED1, "led1", gpio.DefaultPinLED1, "BCM pin number for LED 1")
	flag.IntVar(&cfg.pinLED2, "led2", gpio.DefaultPinLED2, "BCM pin number for LED 2")
	flag.IntVar(&cfg.pinBtn1, "button1", gpio.DefaultPinBtn1, "BCM pin number for button 1")
	flag.IntVar(&cfg.pinBtn2, "button2", gpio.DefaultPinBtn2, "BCM pin number for button 2")
	flag.DurationVar(&cfg.poll, "poll", 10*time.Millisecond, "Main loop polling interval")
	flag.DurationVar(&cfg.debounce, "debounce", dispatch.DefaultDebounce, "Release debounce duration")
	flag.DurationVar(&cfg.edgeDebounce, "edge-debounce", 0, "Kernel debounce on button lines (0 to disable)")
	flag.DurationVar(&cfg.step, "step", logic.DefaultStep, "Delay between pattern steps")
	flag.StringVar(&cfg.consolePath, "console", "", "Serial device for the debug console at 115200 baud (empty for stdout)")
	flag.IntVar(&cfg.consoleQueue, "console-queue", console.DefaultQueue, "Debug lines held before dropping")
	flag.StringVar(&cfg.logBroker, "log-broker", "", "MQTT broker to mirror the debug console to (empty to disable)")
	flag.BoolVar(&cfg.printState, "print-state", false, "Print current button state and exit")

	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	// Print state mode
	if cfg.printState {
		buttons, err := gpio.NewRealButtons(cfg.chip, cfg.pinBtn1, cfg.pinBtn2, 0, nil)
		if err != nil {
			return fmt.Errorf("init buttons: %w", err)
		}
		defer buttons.Close()

		b1, b2, err := buttons.Read()
		if err != nil {
			return fmt.Errorf("read buttons: %w", err)
		}
		fmt.Printf("B1: %s, B2: %s\n", pressedString(b1), pressedString(b2))
		return nil
	}

	// Initialize console
	var out io.Writer = os.Stdout
	if cfg.consolePath != "" {
		tty, err := console.OpenSerial(cfg.consolePath)
		if err != nil {
			return fmt.Errorf("init console: %w", err)
		}
		defer tty.Close()
		out = tty
	}
	con := console.New(out, cfg.consoleQueue)
	defer func() {
		con.Close()
		if n := con.Dropped(); n > 0 {
			log.Printf("console: dropped %d lines", n)
		}
	}()

	// Initialize LEDs and the state machine before edges are delivered
	outputs, err := gpio.NewRealOutputs(cfg.chip, cfg.pinLED1, cfg.pinLED2)
	if err != nil {
		return fmt.Errorf("init leds: %w", err)
	}
	defer outputs.Close()

	led1, led2 := outputs.Lines()
	ctx := shared.New()
	ctx.InitSystem(logic.NewSystem(led1, led2, cfg.step, time.Sleep))

	// Initialize MQTT mirror. Connecting happens in the background.
	var publisher mqtt.Publisher
	if cfg.logBroker != "" {
		p, err := mqtt.NewRealPublisher(cfg.logBroker, "twin-led")
		if err != nil {
			log.Printf("mqtt mirror disabled: %v", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	if publisher != nil {
		ctx.InitConsole(console.Multi(con, publisher))
	} else {
		ctx.InitConsole(con)
	}

	// Buttons are requested last; the dispatcher is wired before any edge can arrive.
	lazy := &lazyButtons{}
	dispatcher := dispatch.New(ctx, lazy, cfg.debounce, time.Sleep)
	buttons, err := gpio.NewRealButtons(cfg.chip, cfg.pinBtn1, cfg.pinBtn2, cfg.edgeDebounce, dispatcher.HandlePress)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()
	lazy.Buttons = buttons

	if publisher != nil {
		if err := publisher.PublishSystem(systemEvent(ctx, "STARTUP", "")); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("queued startup event")
		}
	}

	log.Printf("started: leds=%d,%d buttons=%d,%d poll=%v debounce=%v step=%v",
		cfg.pinLED1, cfg.pinLED2, cfg.pinBtn1, cfg.pinBtn2, cfg.poll, cfg.debounce, cfg.step)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(dispatcher, ctx, publisher, ticker.C, sigCh)
}

// lazyButtons lets the dispatcher be built before the button lines exist.
type lazyButtons struct {
	gpio.Buttons
}

func runLoop(d *dispatch.Dispatcher, ctx *shared.Context, publisher mqtt.Publisher, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			stats := d.Stats()
			log.Printf("dispatch: requests=%d coalesced=%d transitions=%d",
				stats.Requests, stats.Coalesced, stats.Transitions)

			if publisher != nil {
				if err := publisher.PublishSystem(systemEvent(ctx, "SHUTDOWN", signalName)); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("queued shutdown event")
				}
			}
			return nil

		case <-tick:
			d.Step()
		}
	}
}

func systemEvent(ctx *shared.Context, event, reason string) mqtt.SystemEvent {
	e := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  true,
	}
	ctx.WithSystem(func(s *logic.System) {
		e.State = s.State().String()
		e.LED1, e.LED2 = s.Levels()
	})
	return e
}

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
