package logic

import (
	"errors"
	"fmt"
	"time"
)

// System owns the two LED lines and runs the output sequence for its state.
// It is not safe for concurrent use; callers serialize access (see
// internal/shared).
type System struct {
	state State
	led1  Line
	led2  Line
	step  time.Duration
	sleep Sleeper

	// Last level written to each line.
	level1 bool
	level2 bool
}

// NewSystem takes ownership of led1 and led2. The initial state is Idle and
// no line is driven until the first SetState or Update.
func NewSystem(led1, led2 Line, step time.Duration, sleep Sleeper) *System {
	return &System{
		state: StateIdle,
		led1:  led1,
		led2:  led2,
		step:  step,
		sleep: sleep,
	}
}

// SetState switches to s and runs its sequence. Setting the current state
// again replays the sequence.
func (s *System) SetState(st State) error {
	s.state = st
	return s.Update()
}

// Update runs the output sequence for the current state. A failed write does
// not stop the sequence; all write errors are returned joined.
func (s *System) Update() error {
	var errs []error
	set := func(n int, high bool) {
		if err := s.write(n, high); err != nil {
			errs = append(errs, err)
		}
	}

	switch s.state {
	case StateIdle:
		set(1, false)
		set(2, false)
	case StatePatternA:
		set(1, true)
		s.sleep(s.step)
		set(1, false)
		set(2, true)
		s.sleep(s.step)
		set(1, true)
	case StatePatternB:
		set(1, true)
		s.sleep(s.step)
		set(2, false)
		s.sleep(s.step)
	default:
		return fmt.Errorf("unknown state %d", s.state)
	}

	return errors.Join(errs...)
}

func (s *System) write(n int, high bool) error {
	line, level := s.led1, &s.level1
	if n == 2 {
		line, level = s.led2, &s.level2
	}

	var err error
	if high {
		err = line.SetHigh()
	} else {
		err = line.SetLow()
	}
	if err != nil {
		return fmt.Errorf("led%d: %w", n, err)
	}
	*level = high
	return nil
}

// State returns the current state.
func (s *System) State() State {
	return s.state
}

// Levels returns the last level successfully written to each line.
func (s *System) Levels() (led1, led2 bool) {
	return s.level1, s.level2
}
