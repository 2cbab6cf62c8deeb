package logic

import "time"

// pinState tracks debounce history for a single input.
type pinState struct {
	stable      bool
	pending     bool
	pendingSet  bool
	pendingTime time.Time
	baselined   bool
}

// Debouncer filters noisy digital inputs into clean logical edges.
// An edge is emitted only after the raw level has held constant for the
// settle interval; a burst of chatter within one settle window produces at
// most one edge per stable transition.
type Debouncer struct {
	settle time.Duration
	pins   map[int]*pinState
}

// NewDebouncer creates a Debouncer with the given settle interval.
func NewDebouncer(settle time.Duration) *Debouncer {
	return &Debouncer{
		settle: settle,
		pins:   make(map[int]*pinState),
	}
}

// Sample feeds one raw level reading for an input. It returns a non-nil
// Edge when a debounced transition is confirmed, nil otherwise.
//
// The first stable level on each input establishes a baseline and emits
// no edge.
func (d *Debouncer) Sample(input int, level bool, now time.Time) *Edge {
	p, ok := d.pins[input]
	if !ok {
		p = &pinState{}
		d.pins[input] = p
	}

	if !p.baselined {
		if !p.pendingSet || p.pending != level {
			p.pending = level
			p.pendingSet = true
			p.pendingTime = now
			return nil
		}
		if now.Sub(p.pendingTime) >= d.settle {
			p.stable = level
			p.baselined = true
			p.pendingSet = false
		}
		return nil
	}

	if level == p.stable {
		// Raw level bounced back before settling; drop the pending change.
		p.pendingSet = false
		return nil
	}

	if !p.pendingSet || p.pending != level {
		p.pending = level
		p.pendingSet = true
		p.pendingTime = now
		return nil
	}

	if now.Sub(p.pendingTime) >= d.settle {
		p.stable = level
		p.pendingSet = false
		return &Edge{Input: input, Rising: level, Time: now}
	}
	return nil
}

// Level returns the last confirmed level for an input. The second return
// is false until the input has baselined.
func (d *Debouncer) Level(input int) (bool, bool) {
	p, ok := d.pins[input]
	if !ok || !p.baselined {
		return false, false
	}
	return p.stable, true
}
