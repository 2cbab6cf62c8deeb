package printer

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// FileTransport is the dry-run sink. It decodes the job back into pixels
// and writes a PNG, so what lands on disk is the image a human can
// inspect, not raw printer bytes.
type FileTransport struct {
	Path string
}

// Print decodes the job and writes the PNG, creating parent directories
// as needed.
func (t *FileTransport) Print(job *raster.Job) error {
	bm, err := raster.DecodeJob(job)
	if err != nil {
		return fmt.Errorf("decode job: %w", err)
	}

	if dir := filepath.Dir(t.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", t.Path, err)
	}
	defer f.Close()

	if err := png.Encode(f, bm.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// Close is a no-op.
func (t *FileTransport) Close() error {
	return nil
}
