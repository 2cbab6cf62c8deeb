package logic

import (
	"math/rand"
	"testing"
	"time"
)

func TestSelectorClamp(t *testing.T) {
	s := NewSelector(0, 16, 2*time.Second)

	for i := 0; i < 40; i++ {
		s.Step(+1)
	}
	if v := s.Value(); v != 16 {
		t.Errorf("expected clamp at 16, got %d", v)
	}

	for i := 0; i < 100; i++ {
		s.Step(-1)
	}
	if v := s.Value(); v != 0 {
		t.Errorf("expected clamp at 0, got %d", v)
	}
}

func TestSelectorClampRandomWalk(t *testing.T) {
	s := NewSelector(0, 16, 2*time.Second)
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 10000; i++ {
		if r.Intn(2) == 0 {
			s.Step(+1)
		} else {
			s.Step(-1)
		}
		if v := s.Value(); v < 0 || v > 16 {
			t.Fatalf("value %d left [0,16] after %d steps", v, i+1)
		}
	}
}

func TestSelectorConfirmTransitions(t *testing.T) {
	s := NewSelector(0, 16, 2*time.Second)
	s.Step(+3)

	v, ok := s.Confirm()
	if !ok {
		t.Fatal("confirm in Idle should start a job")
	}
	if v != 3 {
		t.Errorf("expected confirmed value 3, got %d", v)
	}
	if m := s.Mode(); m != ModeFetching {
		t.Errorf("expected Fetching, got %s", m)
	}

	// A second press mid-flight is ignored.
	if _, ok := s.Confirm(); ok {
		t.Error("confirm should be ignored while Fetching")
	}

	s.Rendering()
	if m := s.Mode(); m != ModeRendering {
		t.Errorf("expected Rendering, got %s", m)
	}
	s.Printing()
	if m := s.Mode(); m != ModePrinting {
		t.Errorf("expected Printing, got %s", m)
	}
	s.Done()
	if m := s.Mode(); m != ModeIdle {
		t.Errorf("expected Idle after Done, got %s", m)
	}
	if v := s.Value(); v != 3 {
		t.Errorf("value should survive a completed print, got %d", v)
	}
}

func TestSelectorStepsDiscardedWhileBusy(t *testing.T) {
	s := NewSelector(0, 16, 2*time.Second)
	s.Step(+2)
	s.Confirm()
	s.Rendering()
	s.Printing()

	for i := 0; i < 5; i++ {
		s.Step(+1)
	}
	if v := s.Value(); v != 2 {
		t.Errorf("steps while Printing must not mutate value: got %d, want 2", v)
	}
	if d := s.Discarded(); d != 5 {
		t.Errorf("expected 5 discarded steps, got %d", d)
	}

	s.Done()
	if v := s.Value(); v != 2 {
		t.Errorf("value after print should equal value before the steps, got %d", v)
	}
}

func TestSelectorErrorAutoRevert(t *testing.T) {
	hold := 2 * time.Second
	s := NewSelector(0, 16, hold)
	s.Step(+7)
	s.Confirm()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Fail(now)
	if m := s.Mode(); m != ModeError {
		t.Fatalf("expected Error, got %s", m)
	}

	// Encoder input is ignored while in Error.
	s.Step(+1)
	if v := s.Value(); v != 7 {
		t.Errorf("steps in Error must be discarded, got value %d", v)
	}

	s.Tick(now.Add(hold - time.Millisecond))
	if m := s.Mode(); m != ModeError {
		t.Errorf("should still be in Error before the hold elapses, got %s", m)
	}

	s.Tick(now.Add(hold))
	if m := s.Mode(); m != ModeIdle {
		t.Errorf("expected auto-revert to Idle, got %s", m)
	}
	if v := s.Value(); v != 7 {
		t.Errorf("value must be preserved across Error, got %d", v)
	}
}

func TestSelectorFrameDigits(t *testing.T) {
	cases := []struct {
		value      int
		tens, ones int
	}{
		{0, -1, 0},
		{7, -1, 7},
		{10, 1, 0},
		{42, 4, 2},
		{99, 9, 9},
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, c := range cases {
		s := NewSelector(0, 99, 2*time.Second)
		s.Step(c.value)
		f := s.Frame(now)
		if f.Tens != c.tens || f.Ones != c.ones {
			t.Errorf("value %d: expected digits (%d,%d), got (%d,%d)",
				c.value, c.tens, c.ones, f.Tens, f.Ones)
		}
		if f.Blank {
			t.Errorf("value %d: Idle frame should not blink", c.value)
		}
	}
}

func TestSelectorFrameBlinksWhileFetching(t *testing.T) {
	s := NewSelector(0, 16, 2*time.Second)
	s.Confirm()

	// Sample one full blink period at fine granularity: both phases occur.
	base := time.Unix(1000, 0)
	sawOn, sawOff := false, false
	for i := 0; i < 50; i++ {
		f := s.Frame(base.Add(time.Duration(i) * (BlinkPeriod / 50)))
		if f.Blank {
			sawOff = true
		} else {
			sawOn = true
		}
	}
	if !sawOn || !sawOff {
		t.Errorf("expected both blink phases within one period, on=%v off=%v", sawOn, sawOff)
	}

	// Idle never blinks.
	s.Done()
	for i := 0; i < 50; i++ {
		if f := s.Frame(base.Add(time.Duration(i) * (BlinkPeriod / 50))); f.Blank {
			t.Fatal("Idle frame blanked")
		}
	}
}
