// Package fonts loads TrueType fonts and exposes the metrics the PDF text
// layer needs: glyph indices, advance widths in 1/1000 em units, and the
// descriptor values for embedding. A built-in Helvetica with the standard
// Adobe metrics is always available as the no-network fallback.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// metricsPPEM scales sfnt queries so results come back in 1/1000 em units.
const metricsPPEM = fixed.Int26_6(1000 << 6)

// Metrics holds descriptor-level font metrics in 1/1000 em units.
type Metrics struct {
	Ascent    float64
	Descent   float64 // negative, below the baseline
	CapHeight float64
	BBox      [4]float64
}

// Font is a loaded font. The zero value is not usable; construct with Parse
// or Helvetica. Safe for concurrent use.
type Font struct {
	name string
	data []byte

	sf      *sfnt.Font
	shaper  *lineShaper
	metrics Metrics

	mu     sync.Mutex
	buf    sfnt.Buffer
	widths map[rune]float64
}

// Parse loads a TrueType or OpenType font from raw bytes.
func Parse(data []byte) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: parse: %w", err)
	}
	f := &Font{
		data:   data,
		sf:     sf,
		widths: make(map[rune]float64),
	}
	if name, err := sf.Name(&f.buf, sfnt.NameIDPostScript); err == nil && name != "" {
		f.name = name
	} else {
		f.name = "Embedded"
	}
	if m, err := sf.Metrics(&f.buf, metricsPPEM, font.HintingNone); err == nil {
		f.metrics = Metrics{
			Ascent:    fromFixed(m.Ascent),
			Descent:   -fromFixed(m.Descent),
			CapHeight: fromFixed(m.CapHeight),
		}
	}
	if b, err := sf.Bounds(&f.buf, metricsPPEM, font.HintingNone); err == nil {
		f.metrics.BBox = [4]float64{
			fromFixed(b.Min.X), -fromFixed(b.Max.Y),
			fromFixed(b.Max.X), -fromFixed(b.Min.Y),
		}
	}
	f.shaper = newLineShaper(data)
	return f, nil
}

// Name returns the font's PostScript name.
func (f *Font) Name() string { return f.name }

// Builtin reports whether this is a built-in base-14 font with no embeddable
// program.
func (f *Font) Builtin() bool { return f.sf == nil }

// Data returns the raw font program, nil for built-ins.
func (f *Font) Data() []byte { return f.data }

// Metrics returns descriptor metrics in 1/1000 em units.
func (f *Font) Metrics() Metrics { return f.metrics }

// NumGlyphs returns the glyph count, 0 for built-ins.
func (f *Font) NumGlyphs() int {
	if f.sf == nil {
		return 0
	}
	return f.sf.NumGlyphs()
}

// GlyphIndex returns the glyph ID for a rune, 0 (.notdef) when the font has
// no coverage or is a built-in.
func (f *Font) GlyphIndex(r rune) uint16 {
	if f.sf == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	gi, err := f.sf.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return uint16(gi)
}

// HasGlyph reports whether the font maps the rune to a real glyph.
func (f *Font) HasGlyph(r rune) bool {
	if f.sf == nil {
		_, ok := helveticaWidths[r]
		return ok || r < 0x80
	}
	return f.GlyphIndex(r) != 0
}

// RuneWidth returns the advance width of a single rune in 1/1000 em units.
func (f *Font) RuneWidth(r rune) float64 {
	if f.sf == nil {
		return helveticaWidth(r)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.widths[r]; ok {
		return w
	}
	w := f.advanceLocked(r)
	f.widths[r] = w
	return w
}

func (f *Font) advanceLocked(r rune) float64 {
	gi, err := f.sf.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	adv, err := f.sf.GlyphAdvance(&f.buf, gi, metricsPPEM, font.HintingNone)
	if err != nil {
		return 0
	}
	return fromFixed(adv)
}

// MeasureString returns the rendered width of s at the given point size.
// Embedded fonts measure through shaping so ligatures and CJK full-width
// forms come out right; built-ins sum the metrics table.
func (f *Font) MeasureString(s string, size float64) float64 {
	if s == "" {
		return 0
	}
	if f.shaper != nil {
		if w, ok := f.shaper.measure(s); ok {
			return w / 1000 * size
		}
	}
	var sum float64
	for _, r := range s {
		sum += f.RuneWidth(r)
	}
	return sum / 1000 * size
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
