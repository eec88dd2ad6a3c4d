package logic

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// trace records line writes and sleeps in the order they happen.
type trace struct {
	steps []string
}

type traceLine struct {
	name string
	tr   *trace
	err  error
}

func (l *traceLine) SetHigh() error {
	if l.err != nil {
		return l.err
	}
	l.tr.steps = append(l.tr.steps, l.name+"=1")
	return nil
}

func (l *traceLine) SetLow() error {
	if l.err != nil {
		return l.err
	}
	l.tr.steps = append(l.tr.steps, l.name+"=0")
	return nil
}

func (tr *trace) sleep(d time.Duration) {
	tr.steps = append(tr.steps, fmt.Sprintf("wait %v", d))
}

func (tr *trace) String() string {
	return strings.Join(tr.steps, ", ")
}

func newTracedSystem() (*System, *trace, *traceLine, *traceLine) {
	tr := &trace{}
	l1 := &traceLine{name: "led1", tr: tr}
	l2 := &traceLine{name: "led2", tr: tr}
	return NewSystem(l1, l2, DefaultStep, tr.sleep), tr, l1, l2
}

func TestNewSystem(t *testing.T) {
	s, tr, _, _ := newTracedSystem()

	if s.State() != StateIdle {
		t.Errorf("expected initial state IDLE, got %s", s.State())
	}
	if len(tr.steps) != 0 {
		t.Errorf("construction should not drive outputs, got %q", tr)
	}
}

func TestSequences(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		wantLED1 bool
		wantLED2 bool
	}{
		{StateIdle, "led1=0, led2=0", false, false},
		{StatePatternA, "led1=1, wait 300ms, led1=0, led2=1, wait 300ms, led1=1", true, true},
		{StatePatternB, "led1=1, wait 300ms, led2=0, wait 300ms", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			s, tr, _, _ := newTracedSystem()

			if err := s.SetState(tt.state); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tr.String() != tt.want {
				t.Errorf("sequence:\n got: %s\nwant: %s", tr, tt.want)
			}
			if s.State() != tt.state {
				t.Errorf("expected state %s, got %s", tt.state, s.State())
			}
			led1, led2 := s.Levels()
			if led1 != tt.wantLED1 || led2 != tt.wantLED2 {
				t.Errorf("net result: got (%v, %v), want (%v, %v)", led1, led2, tt.wantLED1, tt.wantLED2)
			}
		})
	}
}

func TestSetSameStateReplays(t *testing.T) {
	s, tr, _, _ := newTracedSystem()

	s.SetState(StatePatternB)
	first := len(tr.steps)

	s.SetState(StatePatternB)
	if len(tr.steps) != 2*first {
		t.Fatalf("expected replay to repeat %d steps, got %d total", first, len(tr.steps))
	}
	for i := 0; i < first; i++ {
		if tr.steps[i] != tr.steps[first+i] {
			t.Errorf("step %d: replay %q differs from first run %q", i, tr.steps[first+i], tr.steps[i])
		}
	}

	led1, led2 := s.Levels()
	if !led1 || led2 {
		t.Errorf("expected (true, false) after replay, got (%v, %v)", led1, led2)
	}
}

func TestUpdateDoesNotChangeState(t *testing.T) {
	s, tr, _, _ := newTracedSystem()
	s.SetState(StatePatternA)
	tr.steps = nil

	if err := s.Update(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State() != StatePatternA {
		t.Errorf("Update changed state to %s", s.State())
	}
	if len(tr.steps) != 6 {
		t.Errorf("expected full PatternA sequence, got %q", tr)
	}
}

func TestNetResultAfterAnySequence(t *testing.T) {
	sequences := [][]State{
		{StatePatternA, StatePatternB, StateIdle},
		{StatePatternB, StatePatternA},
		{StateIdle, StatePatternB, StatePatternB},
		{StatePatternA, StateIdle, StatePatternA},
	}
	net := map[State][2]bool{
		StateIdle:     {false, false},
		StatePatternA: {true, true},
		StatePatternB: {true, false},
	}

	for i, seq := range sequences {
		s, _, _, _ := newTracedSystem()
		for _, st := range seq {
			s.SetState(st)
		}
		last := seq[len(seq)-1]
		led1, led2 := s.Levels()
		if want := net[last]; led1 != want[0] || led2 != want[1] {
			t.Errorf("sequence %d: ended in %s with (%v, %v), want (%v, %v)", i, last, led1, led2, want[0], want[1])
		}
	}
}

func TestUpdateWriteErrorContinues(t *testing.T) {
	s, tr, l1, _ := newTracedSystem()
	l1.err = errors.New("line busy")

	err := s.SetState(StatePatternA)
	if err == nil {
		t.Fatal("expected error from failed writes")
	}
	if !errors.Is(err, l1.err) {
		t.Errorf("expected wrapped line error, got %v", err)
	}
	if !strings.Contains(err.Error(), "led1") {
		t.Errorf("expected error to name led1, got %v", err)
	}

	// led2 and both sleeps still happen
	if tr.String() != "wait 300ms, led2=1, wait 300ms" {
		t.Errorf("unexpected remaining steps: %s", tr)
	}
	led1, led2 := s.Levels()
	if led1 || !led2 {
		t.Errorf("expected levels (false, true), got (%v, %v)", led1, led2)
	}
}

func TestUnknownState(t *testing.T) {
	s, tr, _, _ := newTracedSystem()

	if err := s.SetState(State(7)); err == nil {
		t.Error("expected error for unknown state")
	}
	if len(tr.steps) != 0 {
		t.Errorf("unknown state should not drive outputs, got %q", tr)
	}
}

func TestStateStringAndIndex(t *testing.T) {
	tests := []struct {
		state State
		name  string
		index int
	}{
		{StateIdle, "IDLE", 0},
		{StatePatternA, "PATTERN_A", 1},
		{StatePatternB, "PATTERN_B", 2},
		{State(9), "UNKNOWN", 9},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("String(%d): got %q, want %q", tt.state, got, tt.name)
		}
		if got := tt.state.Index(); got != tt.index {
			t.Errorf("Index(%s): got %d, want %d", tt.name, got, tt.index)
		}
	}
}
