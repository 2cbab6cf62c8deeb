// Package logic contains pure state for the selection control loop.
// This package has NO external dependencies (no GPIO, network, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// Mode represents the selection state machine's phase.
type Mode string

const (
	ModeIdle      Mode = "IDLE"
	ModeFetching  Mode = "FETCHING"
	ModeRendering Mode = "RENDERING"
	ModePrinting  Mode = "PRINTING"
	ModeError     Mode = "ERROR"
)

// Input identifiers for the debouncer.
const (
	InputEncoderA = iota
	InputEncoderB
	InputButton
)

// Edge is a confirmed level change on one input, emitted once the raw
// level has been stable for the settle interval.
type Edge struct {
	Input  int
	Rising bool // true = low→high
	Time   time.Time
}

// Frame is what the display should show right now.
type Frame struct {
	Tens  int  // 0–9, or -1 for a suppressed leading zero
	Ones  int  // 0–9
	Blank bool // whole display off (blink-off phase)
}

// BlinkPeriod is one full on/off cycle of the Fetching/Error blink (2 Hz).
const BlinkPeriod = 500 * time.Millisecond
