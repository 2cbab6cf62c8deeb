package logic

import (
	"sync"
	"time"
)

// Selector owns the selection state machine: a mana value bounded to
// [min, max] and the mode the control loop is in. It is the single piece
// of state shared between the input loop, the display loop, and the print
// job goroutine; all access goes through its mutex and no lock is ever
// held across I/O.
type Selector struct {
	mu        sync.Mutex
	value     int
	min, max  int
	mode      Mode
	errorHold time.Duration
	failedAt  time.Time
	discarded int
}

// NewSelector creates a Selector in Idle mode with value at min.
// errorHold is how long the Error blink is shown before reverting to Idle.
func NewSelector(min, max int, errorHold time.Duration) *Selector {
	return &Selector{
		value:     min,
		min:       min,
		max:       max,
		mode:      ModeIdle,
		errorHold: errorHold,
	}
}

// Step applies an encoder step to the value, clamped to [min, max].
// Steps arriving while a print is in flight are discarded so a spin during
// printing cannot corrupt the next selection.
func (s *Selector) Step(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeIdle {
		s.discarded++
		return
	}
	v := s.value + delta
	if v < s.min {
		v = s.min
	}
	if v > s.max {
		v = s.max
	}
	s.value = v
}

// Confirm handles the button press. In Idle mode it transitions to
// Fetching and returns (value, true); in any other mode the press is
// ignored and it returns (0, false).
func (s *Selector) Confirm() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeIdle {
		return 0, false
	}
	s.mode = ModeFetching
	return s.value, true
}

// Rendering marks the transition from Fetching to Rendering.
func (s *Selector) Rendering() {
	s.setMode(ModeFetching, ModeRendering)
}

// Printing marks the transition from Rendering to Printing.
func (s *Selector) Printing() {
	s.setMode(ModeRendering, ModePrinting)
}

// Done completes a print job and returns to Idle with the value
// unchanged, ready for the next pick.
func (s *Selector) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeIdle
}

// Fail moves the machine to Error. The display blinks until Tick reverts
// to Idle after the hold interval; the value is preserved.
func (s *Selector) Fail(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeError
	s.failedAt = now
}

// Tick advances time-driven transitions. Call it from the polling loop.
func (s *Selector) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeError && now.Sub(s.failedAt) >= s.errorHold {
		s.mode = ModeIdle
	}
}

func (s *Selector) setMode(from, to Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == from {
		s.mode = to
	}
}

// Value returns the current mana value.
func (s *Selector) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Mode returns the current mode.
func (s *Selector) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Discarded returns how many encoder steps were dropped because they
// arrived while a job was in flight.
func (s *Selector) Discarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// Frame derives what the display should show at the given instant. In
// Fetching and Error modes the whole frame blinks at 2 Hz; blink-off
// phases are fully blanked rather than digit-multiplexed.
func (s *Selector) Frame(now time.Time) Frame {
	s.mu.Lock()
	value := s.value
	mode := s.mode
	s.mu.Unlock()

	f := frameFor(value)
	if mode == ModeFetching || mode == ModeError {
		half := int64(BlinkPeriod / 2)
		if (now.UnixNano()/half)%2 == 1 {
			f.Blank = true
		}
	}
	return f
}

// frameFor splits a value into display digits with leading-zero
// suppression.
func frameFor(value int) Frame {
	if value < 0 {
		value = 0
	}
	if value > 99 {
		value = 99
	}
	f := Frame{Tens: value / 10, Ones: value % 10}
	if f.Tens == 0 {
		f.Tens = -1
	}
	return f
}
