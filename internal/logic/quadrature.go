package logic

// quadSteps maps (prev<<2 | curr) of the two encoder channel bits, packed
// as A<<1|B, to a signed step. Only transitions on the Gray cycle
// 00→01→11→10→00 (and its reverse) count; a double bit flip is contact
// chatter and yields no step. Trading a rare missed pulse for chatter
// immunity is the right call for a hand-turned knob.
var quadSteps = [16]int{
	0b0001: +1, // 00 → 01
	0b0111: +1, // 01 → 11
	0b1110: +1, // 11 → 10
	0b1000: +1, // 10 → 00
	0b0100: -1, // 01 → 00
	0b1101: -1, // 11 → 01
	0b1011: -1, // 10 → 11
	0b0010: -1, // 00 → 10
}

// DecodeQuadrature returns +1 or -1 for a valid encoder transition and 0
// for no movement or an invalid transition. Channel bits are packed as
// A<<1|B.
func DecodeQuadrature(prev, curr uint8) int {
	return quadSteps[(prev&3)<<2|(curr&3)]
}

// StepAccumulator turns quarter-cycle quadrature transitions into detent
// steps. A mechanical encoder emits four valid transitions per detent, so
// a step fires only once a full cycle completes in one direction; partial
// rotation that backs out cancels itself.
type StepAccumulator struct {
	prev  uint8
	accum int
}

// NewStepAccumulator seeds the accumulator with the current channel bits
// (packed A<<1|B).
func NewStepAccumulator(initial uint8) *StepAccumulator {
	return &StepAccumulator{prev: initial & 3}
}

// Advance feeds the current channel bits and returns the detent step:
// +1, -1, or 0.
func (a *StepAccumulator) Advance(curr uint8) int {
	curr &= 3
	a.accum += DecodeQuadrature(a.prev, curr)
	a.prev = curr
	switch {
	case a.accum >= 4:
		a.accum -= 4
		return 1
	case a.accum <= -4:
		a.accum += 4
		return -1
	}
	return 0
}
