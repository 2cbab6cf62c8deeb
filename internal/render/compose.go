package render

import (
	"fmt"
	"image"
	"image/draw"
	"regexp"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/sweeney/scryfall-thermal/internal/raster"
)

// Layout constants. The face is a compiled-in bitmap font so that
// composition is byte-deterministic across hosts.
var face = basicfont.Face7x13

const (
	margin       = 10 // left/right/top/bottom page margin
	bandPad      = 10 // vertical padding between bands
	linePad      = 2
	lineHeight   = 13 + linePad
	glyphHeight  = 13
	glyphSpacing = 2
	ascent       = 11
)

var symbolPattern = regexp.MustCompile(`\{[^}]+\}`)

// span is one horizontal run within a line: either text or a scaled glyph.
type span struct {
	text  string
	glyph image.Image
	width int
}

// line is a laid-out row of spans. Right-aligned lines are pushed against
// the right margin when drawn.
type line struct {
	spans []span
	right bool
}

func (l line) width() int {
	w := 0
	for _, s := range l.spans {
		w += s.width
	}
	return w
}

// Composer lays out receipt bitmaps. A nil Glyphs resolver renders every
// mana symbol as its literal token text.
type Composer struct {
	Glyphs GlyphResolver
}

// Compose lays out the card into a monochrome bitmap of the given width.
// The height is content-driven: the sum of the band heights plus padding.
// Identical input yields a byte-identical bitmap.
func (c *Composer) Compose(card Card, widthPx int) (*raster.Bitmap, error) {
	if widthPx < 8*margin {
		return nil, fmt.Errorf("width %dpx too narrow for layout", widthPx)
	}
	if strings.TrimSpace(card.Name) == "" {
		return nil, fmt.Errorf("card has no name")
	}
	maxWidth := widthPx - 2*margin

	artHeight := 0
	if card.Art != nil {
		b := card.Art.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return nil, fmt.Errorf("art image is empty")
		}
		artHeight = b.Dy() * widthPx / b.Dx()
		if artHeight < 1 {
			artHeight = 1
		}
	}

	bands := c.textBands(card, maxWidth)

	height := 2 * margin
	if artHeight > 0 {
		height += artHeight + bandPad
	}
	for i, band := range bands {
		if i > 0 {
			height += bandPad
		}
		height += len(band) * lineHeight
	}

	canvas := image.NewGray(image.Rect(0, 0, widthPx, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	y := margin
	if artHeight > 0 {
		dst := image.Rect(0, y, widthPx, y+artHeight)
		xdraw.ApproxBiLinear.Scale(canvas, dst, card.Art, card.Art.Bounds(), xdraw.Over, nil)
		y += artHeight + bandPad
	}
	for i, band := range bands {
		if i > 0 {
			y += bandPad
		}
		for _, l := range band {
			c.drawLine(canvas, l, widthPx, y)
			y += lineHeight
		}
	}

	return raster.FromImage(canvas), nil
}

// textBands builds the text bands: title (name plus right-aligned cost),
// type line, rules text, power/toughness.
func (c *Composer) textBands(card Card, maxWidth int) [][]line {
	var bands [][]line

	title := c.wrapText(card.Name, maxWidth)
	costSpans := c.costSpans(card)
	if len(costSpans) > 0 {
		costWidth := 0
		for _, s := range costSpans {
			costWidth += s.width
		}
		last := &title[len(title)-1]
		if len(title) == 1 && last.width()+2*glyphSpacing+costWidth <= maxWidth {
			// Cost shares the title line, pushed right by a filler span.
			filler := maxWidth - last.width() - costWidth
			last.spans = append(last.spans, span{width: filler})
			last.spans = append(last.spans, costSpans...)
		} else {
			title = append(title, c.layoutRows(costSpans, maxWidth)...)
		}
	}
	bands = append(bands, title)

	if card.TypeLine != "" {
		bands = append(bands, c.wrapText(card.TypeLine, maxWidth))
	}

	if card.OracleText != "" {
		var rules []line
		for _, paragraph := range strings.Split(card.OracleText, "\n") {
			if len(rules) > 0 {
				rules = append(rules, line{})
			}
			rules = append(rules, c.wrapSymbolText(paragraph, maxWidth)...)
		}
		bands = append(bands, rules)
	}

	if card.Power != "" || card.Toughness != "" {
		pt := card.Power + "/" + card.Toughness
		bands = append(bands, []line{{spans: []span{textSpan(pt)}, right: true}})
	}

	return bands
}

// costSpans turns the mana cost into glyph spans with inter-glyph
// spacing, or (when cost compose falls back) literal text spans. An empty
// cost yields a "MV n" text span so every card shows its cost somewhere.
func (c *Composer) costSpans(card Card) []span {
	if card.ManaCost == "" {
		return []span{textSpan(fmt.Sprintf("MV %d", card.ManaValue))}
	}
	tokens := tokenizeCost(card.ManaCost)
	if len(tokens) == 0 {
		return []span{textSpan(card.ManaCost)}
	}

	var spans []span
	for i, tok := range tokens {
		s := c.symbolSpan(tok)
		if i > 0 && s.glyph != nil {
			s.width += glyphSpacing
		}
		spans = append(spans, s)
	}
	return spans
}

// symbolSpan resolves one token into a glyph span, falling back to the
// literal token text when no glyph is available.
func (c *Composer) symbolSpan(token string) span {
	if c.Glyphs != nil {
		if img := c.Glyphs.Glyph(token); img != nil {
			scaled := scaleGlyph(img, glyphHeight)
			return span{glyph: scaled, width: scaled.Bounds().Dx()}
		}
	}
	return textSpan(token)
}

// wrapText greedily wraps plain text into left-aligned lines.
func (c *Composer) wrapText(text string, maxWidth int) []line {
	return c.wrapWords(splitWords(text), maxWidth)
}

// wrapSymbolText wraps a paragraph whose words may contain inline mana
// symbols, substituting glyphs as it goes.
func (c *Composer) wrapSymbolText(text string, maxWidth int) []line {
	var words [][]span
	for _, w := range strings.Fields(text) {
		words = append(words, c.expandWord(w))
	}
	return c.wrapWords(words, maxWidth)
}

// expandWord splits one whitespace-delimited word into text and glyph
// spans around any embedded {X} tokens.
func (c *Composer) expandWord(word string) []span {
	matches := symbolPattern.FindAllStringIndex(word, -1)
	if matches == nil {
		return []span{textSpan(word)}
	}
	var spans []span
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			spans = append(spans, textSpan(word[pos:m[0]]))
		}
		spans = append(spans, c.symbolSpan(word[m[0]:m[1]]))
		pos = m[1]
	}
	if pos < len(word) {
		spans = append(spans, textSpan(word[pos:]))
	}
	return spans
}

// wrapWords greedily fills lines with words, breaking before a word that
// would overflow. A word wider than the line gets a line of its own.
func (c *Composer) wrapWords(words [][]span, maxWidth int) []line {
	if len(words) == 0 {
		return []line{{}}
	}
	space := textSpan(" ")

	var lines []line
	current := line{spans: words[0]}
	for _, word := range words[1:] {
		wordWidth := 0
		for _, s := range word {
			wordWidth += s.width
		}
		if current.width()+space.width+wordWidth <= maxWidth {
			current.spans = append(current.spans, space)
			current.spans = append(current.spans, word...)
		} else {
			lines = append(lines, current)
			current = line{spans: word}
		}
	}
	return append(lines, current)
}

// layoutRows packs glyph spans into as many right-aligned rows as needed.
func (c *Composer) layoutRows(spans []span, maxWidth int) []line {
	var rows []line
	current := line{right: true}
	for _, s := range spans {
		if len(current.spans) > 0 && current.width()+s.width > maxWidth {
			rows = append(rows, current)
			current = line{right: true}
		}
		current.spans = append(current.spans, s)
	}
	if len(current.spans) > 0 {
		rows = append(rows, current)
	}
	return rows
}

func (c *Composer) drawLine(canvas *image.Gray, l line, widthPx, y int) {
	x := margin
	if l.right {
		x = widthPx - margin - l.width()
	}
	drawer := font.Drawer{Dst: canvas, Src: image.Black, Face: face}
	for _, s := range l.spans {
		switch {
		case s.glyph != nil:
			b := s.glyph.Bounds()
			gx := x + (s.width - b.Dx()) // right edge of the slot, after spacing
			top := y + (lineHeight - linePad - glyphHeight)
			draw.Draw(canvas, image.Rect(gx, top, gx+b.Dx(), top+b.Dy()), s.glyph, b.Min, draw.Over)
		case s.text != "":
			drawer.Dot = fixed.P(x, y+ascent)
			drawer.DrawString(s.text)
		}
		x += s.width
	}
}

func textSpan(text string) span {
	return span{text: text, width: font.MeasureString(face, text).Ceil()}
}

// tokenizeCost extracts {X} tokens from a mana cost string. Costs without
// braces fall back to whitespace-separated pieces.
func tokenizeCost(cost string) []string {
	tokens := symbolPattern.FindAllString(cost, -1)
	if tokens != nil {
		return tokens
	}
	cleaned := strings.TrimSpace(strings.NewReplacer("{", "", "}", "").Replace(cost))
	if cleaned == "" {
		return nil
	}
	out := strings.Fields(cleaned)
	for i, t := range out {
		out[i] = "{" + t + "}"
	}
	return out
}

func splitWords(text string) [][]span {
	var words [][]span
	for _, w := range strings.Fields(text) {
		words = append(words, []span{textSpan(w)})
	}
	return words
}

// scaleGlyph resizes a glyph to the given height preserving aspect ratio.
func scaleGlyph(src image.Image, height int) image.Image {
	b := src.Bounds()
	if b.Dy() <= 0 {
		return src
	}
	width := b.Dx() * height / b.Dy()
	if width < 1 {
		width = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
