// Package render composes receipt bitmaps from card data.
package render

import "image"

// Card is the card data the composer lays out. This is a local type so the
// composer stays independent of the lookup client; the cmd layer maps the
// API record into it.
type Card struct {
	Name       string
	ManaCost   string // symbol run like "{1}{G}{G}", may be empty
	ManaValue  int
	TypeLine   string
	OracleText string // paragraphs separated by \n, may contain inline symbols
	Power      string
	Toughness  string
	Art        image.Image // optional, nil for no art band
}

// GlyphResolver maps a mana symbol token like "{G}" to its glyph image,
// or nil when no glyph is available. A nil image makes the composer fall
// back to the literal token text.
type GlyphResolver interface {
	Glyph(symbol string) image.Image
}
