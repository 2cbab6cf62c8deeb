//go:build !linux

package printer

import (
	"errors"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// USBTransport is not available on non-Linux platforms.
type USBTransport struct{}

// OpenUSB returns an error on non-Linux platforms.
func OpenUSB(vendor, product uint16) (*USBTransport, error) {
	return nil, errors.New("usb printing not supported on this platform (requires Linux usblp)")
}

// Print is not implemented on non-Linux platforms.
func (t *USBTransport) Print(job *raster.Job) error {
	return errors.New("usb printing not supported")
}

// Close is not implemented on non-Linux platforms.
func (t *USBTransport) Close() error {
	return nil
}
