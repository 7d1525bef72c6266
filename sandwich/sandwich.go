// Package sandwich builds the sandwich PDF: the scanned page image at full
// size with an invisible, selectable text layer aligned over the printed
// text. It re-parses the raw OCR output itself so its box resolution cannot
// be skewed by the Markdown path's claims.
package sandwich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/wudi/scan2doc/fonts"
	"github.com/wudi/scan2doc/observability"
	"github.com/wudi/scan2doc/ocr"
	"github.com/wudi/scan2doc/pdf"
)

// ErrUnsupportedImage is returned when the page image is neither JPEG nor
// PNG. Without an embeddable page image there is no sandwich to build.
var ErrUnsupportedImage = errors.New("sandwich: unsupported page image")

// defaultDPI is the scan resolution assumed when converting pixels to
// points.
const defaultDPI = 150.0

// Builder generates sandwich PDFs. Safe for concurrent use; the fetched
// CJK font is cached across builds.
type Builder struct {
	dpi     float64
	fetcher *fonts.Fetcher
	logger  observability.Logger

	mu       sync.Mutex
	cjkFont  *fonts.Font
	fetchErr bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithDPI overrides the assumed scan resolution.
func WithDPI(dpi float64) Option {
	return func(b *Builder) {
		if dpi > 0 {
			b.dpi = dpi
		}
	}
}

// WithFontFetcher supplies the fetcher for a CJK-capable font. Without one,
// CJK text falls back to Helvetica and will not round-trip.
func WithFontFetcher(f *fonts.Fetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		dpi:    defaultDPI,
		logger: observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces a single-page sandwich PDF from one OCR result and its
// page image.
func (b *Builder) Build(ctx context.Context, res *ocr.RawResult, pageImage []byte) ([]byte, error) {
	blocks, err := ocr.Parse(res.RawText)
	if err != nil {
		return nil, err
	}
	blocks = ocr.ResolveBlocks(blocks, res.Boxes, res.ImageDims)
	blocks = repairTables(blocks)

	img, err := pdf.DecodeImage(pageImage)
	if err != nil {
		if errors.Is(err, pdf.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := 72.0 / b.dpi
	pageW := float64(res.ImageDims.W) * scale
	pageH := float64(res.ImageDims.H) * scale

	font := b.pageFont(ctx, blocks)
	builder := pdf.NewBuilder()
	pdfFont := builder.AddFont(font)
	page := builder.NewPage(pageW, pageH)
	page.DrawImage(img, 0, 0, pageW, pageH)

	for _, block := range blocks {
		if ocr.IsImage(block.Type) {
			continue
		}
		text := cleanText(block.Content)
		if text == "" {
			continue
		}
		blockW := block.Rect.Width() * scale
		blockH := block.Rect.Height() * scale
		fit := fitText(font, text, blockW, blockH)

		x := block.Rect.X1 * scale
		top := pageH - block.Rect.Y1*scale
		for i, line := range fit.lines {
			if line == "" {
				continue
			}
			y := top - fit.size - float64(i)*fit.size*lineSpacing
			page.DrawText(pdfFont, fit.size, x, y, pdf.TextInvisible, line)
		}
	}
	return builder.Bytes()
}

// repairTables fixes the OCR pattern where a table block comes out empty
// and the table markup lands in the following block: the <table> fragment
// moves into the table-typed block, text around it stays in the follower at
// its own position, and the follower is dropped only when nothing remains.
func repairTables(blocks []ocr.Block) []ocr.Block {
	out := make([]ocr.Block, 0, len(blocks))
	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		if b.Type == ocr.BlockTable && strings.TrimSpace(b.Content) == "" && i+1 < len(blocks) {
			if fragment, residue, ok := splitTableMarkup(blocks[i+1].Content); ok {
				b.Content = fragment
				out = append(out, b)
				if residue != "" {
					follower := blocks[i+1]
					follower.Content = residue
					out = append(out, follower)
				}
				i++
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// splitTableMarkup cuts the first <table>…</table> fragment out of s. An
// unterminated table runs to the end of s.
func splitTableMarkup(s string) (fragment, residue string, ok bool) {
	lower := strings.ToLower(s)
	idx := strings.Index(lower, "<table")
	if idx < 0 {
		return "", s, false
	}
	end := strings.Index(lower[idx:], "</table>")
	if end < 0 {
		return s[idx:], strings.TrimSpace(s[:idx]), true
	}
	stop := idx + end + len("</table>")
	return s[idx:stop], strings.TrimSpace(strings.TrimSpace(s[:idx]) + " " + strings.TrimSpace(s[stop:])), true
}

// pageFont picks the layer font. CJK content needs the fetched font; any
// fetch problem degrades to Helvetica so generation never blocks on the
// network.
func (b *Builder) pageFont(ctx context.Context, blocks []ocr.Block) *fonts.Font {
	needsCJK := false
	for _, block := range blocks {
		if containsCJK(block.Content) {
			needsCJK = true
			break
		}
	}
	if !needsCJK || b.fetcher == nil {
		return fonts.Helvetica()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cjkFont != nil {
		return b.cjkFont
	}
	if b.fetchErr {
		return fonts.Helvetica()
	}
	font, err := b.fetcher.Fetch(ctx)
	if err != nil {
		b.logger.Warn("cjk font unavailable, falling back to Helvetica",
			observability.Error("error", err))
		b.fetchErr = true
		return fonts.Helvetica()
	}
	b.cjkFont = font
	return font
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
