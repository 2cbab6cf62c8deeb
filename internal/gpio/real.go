//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealChip requests lines on the Pi's gpiochip0 using the Linux GPIO
// character device.
type RealChip struct {
	chip    *gpiocdev.Chip
	inputs  []*gpiocdev.Line
	outputs []*gpiocdev.Line
}

// NewRealChip opens the GPIO character device on actual Raspberry Pi hardware.
func NewRealChip() (*RealChip, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealChip{chip: chip}, nil
}

type realInput struct {
	line *gpiocdev.Line
}

func (l *realInput) Level() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("read line: %w", err)
	}
	return v != 0, nil
}

type realOutput struct {
	line *gpiocdev.Line
}

func (l *realOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set line: %w", err)
	}
	return nil
}

// Input requests an input line with the internal pull-up enabled.
// Encoder modules and the push button switch the pin to ground, so the
// idle level is high.
func (c *RealChip) Input(pin int) (InputLine, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	c.inputs = append(c.inputs, line)
	return &realInput{line: line}, nil
}

// Output requests an output line, initially driven low (segment off).
func (c *RealChip) Output(pin int) (OutputLine, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	c.outputs = append(c.outputs, line)
	return &realOutput{line: line}, nil
}

// Close releases all requested lines and the chip.
// Output lines are driven low and reconfigured back to inputs first so the
// display is dark and the pins match Pi boot defaults after shutdown.
func (c *RealChip) Close() error {
	var errs []error

	for _, line := range c.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("blank output: %w", err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	for _, line := range c.inputs {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
