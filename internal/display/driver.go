package display

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/gpio"
	"github.com/sweeney/scryfall-thermal/internal/logic"
)

// Driver multiplexes a two-digit seven-segment display.
type Driver struct {
	segments [8]gpio.OutputLine
	digits   [2]gpio.OutputLine
	slice    time.Duration // time each digit is held lit
	gap      time.Duration // dead time with everything dark between digits

	// sleep is swappable so tests can run without wall-clock delays.
	sleep func(time.Duration)
}

// New requests the segment and digit lines from the chip. refreshHz is the
// per-digit refresh rate; anything at or above 100 Hz is flicker-free.
func New(chip gpio.Chip, segPins, digitPins []int, refreshHz float64) (*Driver, error) {
	if len(segPins) != 8 {
		return nil, fmt.Errorf("expected 8 segment pins in order a,b,c,d,e,f,g,dp, got %d", len(segPins))
	}
	if len(digitPins) != 2 {
		return nil, fmt.Errorf("expected 2 digit pins for a 2-digit display, got %d", len(digitPins))
	}
	if refreshHz < 1 {
		refreshHz = 1
	}

	d := &Driver{sleep: time.Sleep}
	for i, pin := range segPins {
		line, err := chip.Output(pin)
		if err != nil {
			return nil, fmt.Errorf("segment pin %d: %w", pin, err)
		}
		d.segments[i] = line
	}
	for i, pin := range digitPins {
		line, err := chip.Output(pin)
		if err != nil {
			return nil, fmt.Errorf("digit pin %d: %w", pin, err)
		}
		d.digits[i] = line
	}

	slice := time.Duration(float64(time.Second) / (refreshHz * 2))
	gap := slice / 8
	if gap <= 0 {
		gap = 50 * time.Microsecond
	}
	d.slice = slice - gap
	if d.slice <= 0 {
		d.slice = gap
	}
	d.gap = gap
	return d, nil
}

// RefreshOnce drives one full multiplex pass for the given frame: blank,
// tens digit, blank, ones digit. The blank gap before enabling a common is
// mandatory; switching segments while the other common is still active
// bleeds the pattern across digits.
func (d *Driver) RefreshOnce(f logic.Frame) error {
	if f.Blank {
		if err := d.blankAll(); err != nil {
			return err
		}
		d.sleep(2 * (d.gap + d.slice))
		return nil
	}

	for i, digit := range [2]int{f.Tens, f.Ones} {
		if err := d.blankAll(); err != nil {
			return err
		}
		d.sleep(d.gap)
		if err := d.setSegments(Pattern(digit)); err != nil {
			return err
		}
		if err := d.digits[i].Set(true); err != nil {
			return err
		}
		d.sleep(d.slice)
	}
	return nil
}

// Run refreshes the display until ctx is done, reading the frame source at
// the top of every pass. It blanks the display on exit.
func (d *Driver) Run(ctx context.Context, frame func(time.Time) logic.Frame) {
	var lastErr string
	for ctx.Err() == nil {
		if err := d.RefreshOnce(frame(time.Now())); err != nil {
			// Log each distinct fault once rather than at refresh rate.
			if err.Error() != lastErr {
				log.Printf("display refresh error: %v", err)
				lastErr = err.Error()
			}
		} else {
			lastErr = ""
		}
	}
	if err := d.blankAll(); err != nil {
		log.Printf("display blank on exit: %v", err)
	}
}

func (d *Driver) blankAll() error {
	for _, line := range d.digits {
		if err := line.Set(false); err != nil {
			return err
		}
	}
	for _, line := range d.segments {
		if err := line.Set(false); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) setSegments(pattern [8]bool) error {
	for i, line := range d.segments {
		if err := line.Set(pattern[i]); err != nil {
			return err
		}
	}
	return nil
}
