package printer

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// NetTransport sends jobs to a JetDirect-style TCP printer. It dials per
// job: jobs are minutes apart at best and a held-open socket to a thermal
// printer tends to get dropped by the firmware anyway.
type NetTransport struct {
	addr    string
	timeout time.Duration
}

// NewNet creates a transport for host:port with the given dial timeout.
func NewNet(host string, port int, timeout time.Duration) *NetTransport {
	return &NetTransport{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: timeout,
	}
}

// Print dials the printer and writes the whole job.
func (t *NetTransport) Print(job *raster.Job) error {
	conn, err := net.DialTimeout("tcp", t.addr, t.timeout)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrUnreachable, t.addr, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(t.timeout))
	for _, chunk := range job.Chunks {
		if _, err := conn.Write(chunk); err != nil {
			return fmt.Errorf("write to %s: %w", t.addr, err)
		}
	}
	return nil
}

// Close is a no-op; connections are per job.
func (t *NetTransport) Close() error {
	return nil
}
