// Package docx synthesizes a Word-compatible OOXML document from the
// assembled Markdown. Markdown structure is tokenized with goldmark; inline
// HTML produced by the layout stage (tables, breaks, images) is re-scanned
// with a constrained tokenizer rather than a general HTML renderer.
package docx

// Run is one inline unit of a paragraph. The four implementations form a
// closed set; the packer switches over them exhaustively.
type Run interface {
	isRun()
}

// TextRun is literal text with formatting flags.
type TextRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// BreakRun is an explicit line break inside a paragraph.
type BreakRun struct{}

// ImageRun references an extracted figure asset by ID.
type ImageRun struct {
	AssetID string
	Alt     string
}

// MathRun is a converted math object. OMML holds the Office Math markup;
// when conversion failed it is empty and Fallback carries plain text.
type MathRun struct {
	OMML     string
	Fallback string
}

func (TextRun) isRun()  {}
func (BreakRun) isRun() {}
func (ImageRun) isRun() {}
func (MathRun) isRun()  {}

type blockKind int

const (
	blockParagraph blockKind = iota
	blockTable
)

// block is one body-level element of the synthesized document.
type block struct {
	kind  blockKind
	para  *paragraph
	table *tableBlock
}

type paragraph struct {
	heading int // 0 for body text, 1-4 for headings
	runs    []Run
}

type tableBlock struct {
	borderless bool
	rows       [][]tableCell
}

type tableCell struct {
	widthPct int
	header   bool
	blocks   []block
}
