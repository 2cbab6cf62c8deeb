package printer

import (
	"sync"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// FakeTransport records printed jobs for test assertions.
type FakeTransport struct {
	mu sync.Mutex

	// Jobs contains every job handed to Print.
	Jobs []*raster.Job

	// PrintError, if set, will be returned by Print.
	PrintError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeTransport creates a FakeTransport for testing.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Print records the job.
func (f *FakeTransport) Print(job *raster.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PrintError != nil {
		return f.PrintError
	}
	f.Jobs = append(f.Jobs, job)
	return nil
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// JobCount returns how many jobs were printed.
func (f *FakeTransport) JobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Jobs)
}
