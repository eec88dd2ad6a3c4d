// Package dispatch turns button input into state machine transitions.
//
// Presses arrive as edge events on their own goroutine and only record a
// requested state. The main loop calls Step, which is the sole place the
// state machine runs. A press during a running sequence therefore never
// interrupts it: the sequence completes and the request is applied at the
// next fixed point in Step.
package dispatch

import (
	"log"
	"sync"
	"time"

	"github.com/sweeney/twin-led/internal/gpio"
	"github.com/sweeney/twin-led/internal/logic"
	"github.com/sweeney/twin-led/internal/shared"
)

// DefaultDebounce is how long both buttons must stay released before the
// state resets to Idle.
const DefaultDebounce = 50 * time.Millisecond

// Stats counts dispatcher activity since startup.
type Stats struct {
	Requests    int // presses recorded
	Coalesced   int // requests overwritten before being applied
	Transitions int // SetState calls, including Idle resets
}

// Dispatcher owns the pending request slot and the main-loop step.
type Dispatcher struct {
	ctx      *shared.Context
	buttons  gpio.Buttons
	debounce time.Duration
	sleep    logic.Sleeper

	mu      sync.Mutex
	pending *logic.State
	stats   Stats
}

// New creates a Dispatcher for the given context and buttons. sleep is the
// blocking delay used for the release debounce.
func New(ctx *shared.Context, buttons gpio.Buttons, debounce time.Duration, sleep logic.Sleeper) *Dispatcher {
	return &Dispatcher{
		ctx:      ctx,
		buttons:  buttons,
		debounce: debounce,
		sleep:    sleep,
	}
}

// HandlePress is the edge handler for both buttons.
func (d *Dispatcher) HandlePress(b gpio.Button) {
	switch b {
	case gpio.Button1:
		d.Request(logic.StatePatternA)
	case gpio.Button2:
		d.Request(logic.StatePatternB)
	default:
		log.Printf("dispatch: press from unknown button %d", b)
	}
}

// Request records st as the next state to apply. The latest request wins.
func (d *Dispatcher) Request(st logic.State) {
	d.mu.Lock()
	if d.pending != nil {
		d.stats.Coalesced++
	}
	d.pending = &st
	d.stats.Requests++
	d.mu.Unlock()
}

func (d *Dispatcher) takePending() (logic.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return 0, false
	}
	st := *d.pending
	d.pending = nil
	return st, true
}

// Step runs one main-loop iteration: apply a pending press, reset to Idle on
// a debounced release, apply a press that arrived meanwhile, then re-render
// the current state.
func (d *Dispatcher) Step() {
	d.applyPending()

	if d.allReleased() {
		d.sleep(d.debounce)
		if d.allReleased() {
			d.reset()
		}
	}

	d.applyPending()

	d.ctx.WithSystem(func(s *logic.System) {
		if err := s.Update(); err != nil {
			log.Printf("update %s: %v", s.State(), err)
		}
	})
}

func (d *Dispatcher) applyPending() {
	if st, ok := d.takePending(); ok {
		d.transition(st, true)
	}
}

// reset returns to Idle. "Set 0" is printed only when the state changes.
func (d *Dispatcher) reset() {
	d.transition(logic.StateIdle, false)
}

func (d *Dispatcher) transition(st logic.State, always bool) {
	d.ctx.WithSystem(func(s *logic.System) {
		if always || s.State() != st {
			d.ctx.Println("Set %d", st.Index())
			log.Printf("state: %s -> %s", s.State(), st)
		}
		if err := s.SetState(st); err != nil {
			log.Printf("set %s: %v", st, err)
		}
	})

	d.mu.Lock()
	d.stats.Transitions++
	d.mu.Unlock()
}

func (d *Dispatcher) allReleased() bool {
	b1, b2, err := d.buttons.Read()
	if err != nil {
		log.Printf("button read error: %v", err)
		return false
	}
	return !b1 && !b2
}

// Stats returns a copy of the activity counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
