// Package gpio provides digital pin access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// InputLine reads a single digital input.
type InputLine interface {
	// Level returns true when the line is high.
	Level() (bool, error)
}

// OutputLine drives a single digital output.
type OutputLine interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error
}

// Chip hands out input and output lines by BCM pin number.
// Each pin may be requested at most once per Chip.
type Chip interface {
	Input(pin int) (InputLine, error)
	Output(pin int) (OutputLine, error)

	// Close releases all requested lines.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultEncoderA  = 17 // encoder channel A (CLK)
	DefaultEncoderB  = 18 // encoder channel B (DT)
	DefaultEncoderSW = 27 // encoder push button
)

// DefaultSegmentPins drive segments a,b,c,d,e,f,g,dp in that order.
var DefaultSegmentPins = []int{5, 6, 13, 19, 26, 12, 16, 20}

// DefaultDigitPins drive the digit common lines, tens then ones.
var DefaultDigitPins = []int{21, 25}
