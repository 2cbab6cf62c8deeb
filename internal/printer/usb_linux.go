//go:build linux

package printer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// USBTransport writes to the kernel usblp character device whose
// vendor/product ids match. Going through the usblp driver avoids a
// userspace USB stack the same way the gpio package goes through the GPIO
// character device.
type USBTransport struct {
	path string
}

// OpenUSB locates the usblp device for the given vendor/product pair.
func OpenUSB(vendor, product uint16) (*USBTransport, error) {
	path, err := findUSBLP("/sys/class/usbmisc", "/dev/usb", vendor, product)
	if err != nil {
		return nil, err
	}
	return &USBTransport{path: path}, nil
}

// findUSBLP scans the usblp class entries under sysRoot and returns the
// device node under devRoot whose parent USB device matches the ids.
func findUSBLP(sysRoot, devRoot string, vendor, product uint16) (string, error) {
	entries, err := filepath.Glob(filepath.Join(sysRoot, "lp*"))
	if err != nil || len(entries) == 0 {
		return "", fmt.Errorf("%w: no usblp devices under %s", ErrUnreachable, sysRoot)
	}
	for _, entry := range entries {
		// The class entry's device link points at the USB interface; the
		// directory above it carries idVendor/idProduct.
		iface, err := filepath.EvalSymlinks(filepath.Join(entry, "device"))
		if err != nil {
			continue
		}
		parent := filepath.Dir(iface)
		vid, err1 := readHexFile(filepath.Join(parent, "idVendor"))
		pid, err2 := readHexFile(filepath.Join(parent, "idProduct"))
		if err1 != nil || err2 != nil {
			continue
		}
		if vid == vendor && pid == product {
			return filepath.Join(devRoot, filepath.Base(entry)), nil
		}
	}
	return "", fmt.Errorf("%w: no usblp device with id %04x:%04x", ErrUnreachable, vendor, product)
}

func readHexFile(path string) (uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// Print opens the device node and writes the whole job.
func (t *USBTransport) Print(job *raster.Job) error {
	f, err := os.OpenFile(t.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrUnreachable, t.path, err)
	}
	defer f.Close()

	for _, chunk := range job.Chunks {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("write to %s: %w", t.path, err)
		}
	}
	return nil
}

// Close is a no-op; the device node is opened per job.
func (t *USBTransport) Close() error {
	return nil
}
