// Package printer delivers encoded raster jobs to a device: a network
// printer, a USB printer, or a file sink for dry runs.
package printer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// DefaultNetPort is the raw JetDirect port most thermal printers listen on.
const DefaultNetPort = 9100

// ErrUnreachable wraps connection failures so hardware mode can show the
// error blink instead of exiting. It never degrades to a dry run.
var ErrUnreachable = errors.New("printer unreachable")

// Transport delivers one complete raster job.
type Transport interface {
	Print(job *raster.Job) error
	Close() error
}

// Spec selects a transport kind and its address.
type Spec struct {
	Kind    string // "usb" or "net"
	Host    string
	Port    int
	Vendor  uint16
	Product uint16
}

// ParseSpec parses a printer spec string: usb:VID:PID (hex) or
// net:HOST[:PORT].
func ParseSpec(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "usb:"):
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return Spec{}, fmt.Errorf("usb printer format must be usb:VID:PID")
		}
		vid, err := parseHexID(parts[1])
		if err != nil {
			return Spec{}, fmt.Errorf("usb vendor id: %w", err)
		}
		pid, err := parseHexID(parts[2])
		if err != nil {
			return Spec{}, fmt.Errorf("usb product id: %w", err)
		}
		return Spec{Kind: "usb", Vendor: vid, Product: pid}, nil

	case strings.HasPrefix(raw, "net:"):
		parts := strings.Split(raw, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
			return Spec{}, fmt.Errorf("network printer format must be net:HOST[:PORT]")
		}
		port := DefaultNetPort
		if len(parts) == 3 {
			p, err := strconv.Atoi(parts[2])
			if err != nil || p < 1 || p > 65535 {
				return Spec{}, fmt.Errorf("invalid network printer port %q", parts[2])
			}
			port = p
		}
		return Spec{Kind: "net", Host: parts[1], Port: port}, nil
	}
	return Spec{}, fmt.Errorf("printer format must start with usb: or net:")
}

func parseHexID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("not a 16-bit hex id: %q", s)
	}
	return uint16(v), nil
}
