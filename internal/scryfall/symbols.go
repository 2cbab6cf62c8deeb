package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// symbolIndexFile maps symbol codes to rasterized PNG filenames inside
// the cache directory.
const symbolIndexFile = "symbols.json"

// glyphRasterHeight is the height symbols are rasterized at. The composer
// scales down from here, so it only needs to comfortably exceed the line
// height.
const glyphRasterHeight = 64

// SymbolCache resolves mana symbol codes like "{G}" to glyph images,
// backed by a directory of PNGs rasterized from the API's SVG artwork.
type SymbolCache struct {
	Dir     string
	BaseURL string
	HTTP    *http.Client

	mu     sync.Mutex
	index  map[string]string
	images map[string]image.Image
}

// DefaultSymbolsDir returns the glyph cache directory, honoring the
// SCRYFALL_SYMBOLS_DIR override.
func DefaultSymbolsDir() string {
	if override := os.Getenv("SCRYFALL_SYMBOLS_DIR"); override != "" {
		return override
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "scryfall-thermal", "symbols")
}

// OpenSymbolCache creates a cache over the given directory. The index is
// loaded lazily; call Ensure before composing if glyphs should be
// available.
func OpenSymbolCache(dir string, timeout time.Duration) *SymbolCache {
	return &SymbolCache{
		Dir:     dir,
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: timeout},
		images:  make(map[string]image.Image),
	}
}

// symbologyJSON mirrors the /symbology payload.
type symbologyJSON struct {
	Data []struct {
		Symbol string `json:"symbol"`
		SVGURI string `json:"svg_uri"`
	} `json:"data"`
}

// Ensure makes the on-disk cache complete: if the index is missing or any
// referenced file is gone, the symbology listing is fetched and every
// symbol rasterized into the cache directory.
func (s *SymbolCache) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index, ok := s.loadIndex(); ok {
		s.index = index
		return nil
	}
	return s.fill(ctx)
}

// loadIndex reads symbols.json and verifies every referenced file exists.
func (s *SymbolCache) loadIndex() (map[string]string, bool) {
	data, err := os.ReadFile(filepath.Join(s.Dir, symbolIndexFile))
	if err != nil {
		return nil, false
	}
	var index map[string]string
	if err := json.Unmarshal(data, &index); err != nil || len(index) == 0 {
		return nil, false
	}
	for _, name := range index {
		if _, err := os.Stat(filepath.Join(s.Dir, name)); err != nil {
			return nil, false
		}
	}
	return index, true
}

// fill fetches the symbology listing and rasterizes every symbol.
// Called with the lock held.
func (s *SymbolCache) fill(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/symbology", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fetch symbology: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch symbology: unexpected status %s", resp.Status)
	}

	var listing symbologyJSON
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fmt.Errorf("decode symbology: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	index := make(map[string]string)
	for _, entry := range listing.Data {
		if entry.Symbol == "" || entry.SVGURI == "" {
			continue
		}
		name := pngName(entry.SVGURI)
		index[entry.Symbol] = name

		path := filepath.Join(s.Dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := s.rasterizeTo(ctx, entry.SVGURI, path); err != nil {
			return fmt.Errorf("symbol %s: %w", entry.Symbol, err)
		}
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, symbolIndexFile), data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	s.index = index
	return nil
}

// rasterizeTo downloads one SVG and writes it as a PNG.
func (s *SymbolCache) rasterizeTo(ctx context.Context, svgURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svgURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fetch svg: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch svg: unexpected status %s", resp.Status)
	}
	svg, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read svg: %w", err)
	}

	img, err := rasterizeSVG(svg, glyphRasterHeight)
	if err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// rasterizeSVG renders an SVG at the given pixel height, preserving
// aspect ratio.
func rasterizeSVG(svg []byte, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, err
	}
	if icon.ViewBox.H <= 0 || icon.ViewBox.W <= 0 {
		return nil, fmt.Errorf("svg has no viewBox")
	}

	width := int(icon.ViewBox.W * float64(height) / icon.ViewBox.H)
	if width < 1 {
		width = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.SetTarget(0, 0, float64(width), float64(height))
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)
	return img, nil
}

// Glyph implements render.GlyphResolver. It returns nil on any miss or
// read failure so the composer falls back to literal token text.
func (s *SymbolCache) Glyph(symbol string) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img, ok := s.images[symbol]; ok {
		return img
	}
	name, ok := s.index[symbol]
	if !ok {
		return nil
	}

	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil
	}
	s.images[symbol] = img
	return img
}

// pngName derives the cached filename from the SVG URL's stem.
func pngName(svgURL string) string {
	stem := "symbol"
	if u, err := url.Parse(svgURL); err == nil {
		base := filepath.Base(u.Path)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return stem + ".png"
}
