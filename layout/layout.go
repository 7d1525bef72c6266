// Package layout reconstructs the visual structure of a scanned page from
// positioned OCR blocks: which blocks form a flowing column, which columns
// sit side by side in one horizontal band, and which captions belong to
// which figures. The result is an ordered list of visual rows, emitted
// top-to-bottom with columns left-to-right.
package layout

import (
	"math"
	"sort"

	"github.com/wudi/scan2doc/geo"
	"github.com/wudi/scan2doc/ocr"
)

// Config carries the clustering thresholds. The defaults are empirically
// tuned against scanned-page corpora; they are configuration, not law.
type Config struct {
	// CaptionOverlap is how far a caption may reach up into its image, in
	// pixels (slight overlap happens when boxes are loose).
	CaptionOverlap float64
	// CaptionGap is the maximum vertical distance between an image's bottom
	// edge and its caption's top edge.
	CaptionGap float64
	// CaptionAlign is the horizontal slack when checking that a caption's
	// center falls under its image's extent.
	CaptionAlign float64
	// ColumnOverlapFrac is the minimum horizontal overlap, as a fraction of
	// the smaller of the two widths, for a block to join an existing column.
	ColumnOverlapFrac float64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		CaptionOverlap:    10,
		CaptionGap:        100,
		CaptionAlign:      50,
		ColumnOverlapFrac: 0.30,
	}
}

// Column is a vertical run of blocks that read together top-to-bottom.
type Column struct {
	Blocks      []ocr.Block
	Left, Right float64
}

// Width returns the column's horizontal span.
func (c *Column) Width() float64 { return c.Right - c.Left }

// CenterX returns the column's horizontal center.
func (c *Column) CenterX() float64 { return (c.Left + c.Right) / 2 }

// Row is a horizontal band of the page: one or more columns sharing
// vertical extent.
type Row struct {
	Columns     []Column
	Top, Bottom float64
}

// IsPlain reports whether the row renders as plain flowing text: exactly
// one column holding exactly one block.
func (r *Row) IsPlain() bool {
	return len(r.Columns) == 1 && len(r.Columns[0].Blocks) == 1
}

// ColumnPercents sizes the row's columns as integer percentages of the page
// width, renormalized so they sum to 100 (up to rounding per column).
func (r *Row) ColumnPercents(pageWidth float64) []int {
	if len(r.Columns) == 0 {
		return nil
	}
	raw := make([]float64, len(r.Columns))
	var sum float64
	for i := range r.Columns {
		w := r.Columns[i].Width()
		if pageWidth > 0 {
			w /= pageWidth
		}
		raw[i] = w
		sum += w
	}
	percents := make([]int, len(raw))
	for i, v := range raw {
		if sum > 0 {
			percents[i] = int(math.Round(v / sum * 100))
		} else {
			percents[i] = int(math.Round(100 / float64(len(raw))))
		}
	}
	return percents
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConfig replaces the threshold configuration.
func WithConfig(cfg Config) Option {
	return func(a *Analyzer) { a.cfg = cfg }
}

// Analyzer clusters resolved blocks into visual rows.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer with optional configuration.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reconstructs the page: captions are bound to their images first,
// then blocks are grouped into rows by vertical overlap and into columns by
// horizontal overlap. The input slice is not modified.
func (a *Analyzer) Analyze(blocks []ocr.Block) []Row {
	work := make([]ocr.Block, len(blocks))
	copy(work, blocks)
	sort.SliceStable(work, func(i, j int) bool { return work[i].Rect.Y1 < work[j].Rect.Y1 })

	work = a.bindCaptions(work)
	rows := a.formRows(work)

	for i := range rows {
		rows[i].Columns = a.clusterColumns(rows[i])
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Top < rows[j].Top })
	return rows
}

// bindCaptions merges each image's adjacent caption into the image block and
// removes the caption from the list. One caption per image, first adjacency
// match wins. Input must be sorted by top-Y.
func (a *Analyzer) bindCaptions(blocks []ocr.Block) []ocr.Block {
	consumed := make([]bool, len(blocks))
	for i := range blocks {
		if !ocr.IsImage(blocks[i].Type) {
			continue
		}
		img := blocks[i].Rect
		for j := i + 1; j < len(blocks); j++ {
			if consumed[j] || !ocr.IsCaption(blocks[j].Type) {
				continue
			}
			cap := blocks[j].Rect
			gap := cap.Y1 - img.Y2
			if gap < -a.cfg.CaptionOverlap || gap > a.cfg.CaptionGap {
				continue
			}
			if cap.CenterX() < img.X1-a.cfg.CaptionAlign || cap.CenterX() > img.X2+a.cfg.CaptionAlign {
				continue
			}
			if blocks[i].Content != "" {
				blocks[i].Content += "\n"
			}
			blocks[i].Content += blocks[j].Content
			consumed[j] = true
			break
		}
	}
	out := blocks[:0]
	for i, b := range blocks {
		if !consumed[i] {
			out = append(out, b)
		}
	}
	return out
}

// formRows groups blocks whose vertical extents overlap into shared rows.
// The row envelope grows as blocks join, and the scan repeats until a fixed
// point: a late block can widen the envelope enough to capture one that was
// previously rejected. Headings always sit alone in their own row.
func (a *Analyzer) formRows(blocks []ocr.Block) []Row {
	assigned := make([]bool, len(blocks))
	var rows []Row

	for i, b := range blocks {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		if ocr.IsHeading(b.Type) {
			rows = append(rows, Row{
				Columns: []Column{{Blocks: []ocr.Block{b}, Left: b.Rect.X1, Right: b.Rect.X2}},
				Top:     b.Rect.Y1,
				Bottom:  b.Rect.Y2,
			})
			continue
		}

		members := []ocr.Block{b}
		top, bottom := b.Rect.Y1, b.Rect.Y2
		for changed := true; changed; {
			changed = false
			for j, other := range blocks {
				if assigned[j] || ocr.IsHeading(other.Type) {
					continue
				}
				if other.Rect.Y1 < bottom && other.Rect.Y2 > top {
					assigned[j] = true
					members = append(members, other)
					top = math.Min(top, other.Rect.Y1)
					bottom = math.Max(bottom, other.Rect.Y2)
					changed = true
				}
			}
		}
		rows = append(rows, Row{
			Columns: []Column{{Blocks: members}},
			Top:     top,
			Bottom:  bottom,
		})
	}
	return rows
}

// clusterColumns splits one row's blocks into columns. Blocks are taken in
// horizontal-center order and join the column they overlap most, provided
// the overlap clears the configured fraction of the smaller width;
// otherwise they open a new column.
func (a *Analyzer) clusterColumns(row Row) []Column {
	var blocks []ocr.Block
	for _, c := range row.Columns {
		blocks = append(blocks, c.Blocks...)
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Rect.CenterX() < blocks[j].Rect.CenterX()
	})

	var columns []Column
	for _, b := range blocks {
		best := -1
		bestOverlap := 0.0
		for ci := range columns {
			span := geo.Rect{X1: columns[ci].Left, X2: columns[ci].Right, Y2: 1}
			o := geo.HOverlap(b.Rect, span)
			if o > bestOverlap {
				bestOverlap = o
				best = ci
			}
		}
		if best >= 0 {
			smaller := math.Min(b.Rect.Width(), columns[best].Width())
			if smaller > 0 && bestOverlap >= a.cfg.ColumnOverlapFrac*smaller {
				col := &columns[best]
				col.Blocks = append(col.Blocks, b)
				col.Left = math.Min(col.Left, b.Rect.X1)
				col.Right = math.Max(col.Right, b.Rect.X2)
				continue
			}
		}
		columns = append(columns, Column{Blocks: []ocr.Block{b}, Left: b.Rect.X1, Right: b.Rect.X2})
	}

	for ci := range columns {
		sort.SliceStable(columns[ci].Blocks, func(i, j int) bool {
			return columns[ci].Blocks[i].Rect.Y1 < columns[ci].Blocks[j].Rect.Y1
		})
	}
	sort.SliceStable(columns, func(i, j int) bool { return columns[i].Left < columns[j].Left })
	return columns
}
