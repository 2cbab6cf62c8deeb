package gpio

import (
	"fmt"
	"sync"
)

// FakeChip is a test double. Input lines replay scripted levels and output
// lines record every write.
type FakeChip struct {
	mu      sync.Mutex
	inputs  map[int]*FakeInput
	outputs map[int]*FakeOutput

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeChip creates an empty FakeChip. Lines are created on demand.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		inputs:  make(map[int]*FakeInput),
		outputs: make(map[int]*FakeOutput),
	}
}

// Input returns the fake input line for the pin, creating it if needed.
func (c *FakeChip) Input(pin int) (InputLine, error) {
	return c.InputPin(pin), nil
}

// Output returns the fake output line for the pin, creating it if needed.
func (c *FakeChip) Output(pin int) (OutputLine, error) {
	return c.OutputPin(pin), nil
}

// InputPin gives tests direct access to the fake line for scripting.
func (c *FakeChip) InputPin(pin int) *FakeInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	in, ok := c.inputs[pin]
	if !ok {
		in = &FakeInput{}
		c.inputs[pin] = in
	}
	return in
}

// OutputPin gives tests direct access to the fake line for assertions.
func (c *FakeChip) OutputPin(pin int) *FakeOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.outputs[pin]
	if !ok {
		out = &FakeOutput{}
		c.outputs[pin] = out
	}
	return out
}

// Close marks the chip as closed.
func (c *FakeChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// FakeInput replays scripted levels. When the script is exhausted the last
// level repeats, matching a real pin that simply holds its state.
type FakeInput struct {
	mu     sync.Mutex
	levels []bool
	index  int

	// Err, if set, will be returned by Level.
	Err error
}

// Script replaces the remaining scripted levels.
func (f *FakeInput) Script(levels ...bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = levels
	f.index = 0
}

// Level returns the next scripted level.
func (f *FakeInput) Level() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	if len(f.levels) == 0 {
		return false, fmt.Errorf("no levels scripted")
	}
	level := f.levels[f.index]
	if f.index < len(f.levels)-1 {
		f.index++
	}
	return level, nil
}

// FakeOutput records the sequence of values written to it.
type FakeOutput struct {
	mu     sync.Mutex
	writes []bool

	// Err, if set, will be returned by Set.
	Err error
}

// Set records the written value.
func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.writes = append(f.writes, on)
	return nil
}

// Writes returns a copy of everything written so far.
func (f *FakeOutput) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.writes))
	copy(out, f.writes)
	return out
}

// Last returns the most recently written value, or false if nothing has
// been written.
func (f *FakeOutput) Last() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return false
	}
	return f.writes[len(f.writes)-1]
}
