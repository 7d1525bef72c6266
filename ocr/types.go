// Package ocr models the tagged output of the OCR collaborator and turns it
// into typed, positioned blocks. Two independent consumers exist (the
// Markdown path and the sandwich PDF path); each runs its own parse and its
// own box resolution so that neither can observe the other's claimed boxes.
package ocr

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wudi/scan2doc/geo"
)

// ErrMissingRawText is returned when a result carries no raw text at all.
// Nothing meaningful can be generated from it, so this aborts the request.
var ErrMissingRawText = errors.New("ocr: missing raw text")

// Block type labels emitted inside <|ref|>…<|/ref|> markers. The set is
// open: free-form labels pass through and are treated like text.
const (
	BlockText          = "text"
	BlockTitle         = "title"
	BlockSubTitle      = "sub_title"
	BlockImage         = "image"
	BlockFigure        = "figure"
	BlockTable         = "table"
	BlockImageCaption  = "image_caption"
	BlockCaption       = "caption"
	BlockFigureCaption = "figure_caption"
)

// IsHeading reports whether a block type renders as a heading. Headings
// never participate in column clustering.
func IsHeading(blockType string) bool {
	return blockType == BlockTitle || blockType == BlockSubTitle
}

// IsImage reports whether a block type denotes a figure region whose pixels
// are sliced into a standalone image asset.
func IsImage(blockType string) bool {
	return blockType == BlockImage || blockType == BlockFigure
}

// IsCaption reports whether a block type is a caption candidate for
// caption-to-image binding.
func IsCaption(blockType string) bool {
	return blockType == BlockImageCaption || blockType == BlockCaption || blockType == BlockFigureCaption
}

// Dims is an image size in pixels.
type Dims struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Box is one authoritative detection region in page pixels.
type Box struct {
	Label string
	Rect  geo.Rect
}

type boxJSON struct {
	Label string     `json:"label"`
	Box   [4]float64 `json:"box"`
}

// UnmarshalJSON decodes the OCR server wire form {"label":…, "box":[x1,y1,x2,y2]}.
func (b *Box) UnmarshalJSON(data []byte) error {
	var w boxJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("ocr: decode box: %w", err)
	}
	b.Label = w.Label
	b.Rect = geo.Rect{X1: w.Box[0], Y1: w.Box[1], X2: w.Box[2], Y2: w.Box[3]}
	return nil
}

// MarshalJSON encodes back into the wire form.
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal(boxJSON{
		Label: b.Label,
		Box:   [4]float64{b.Rect.X1, b.Rect.Y1, b.Rect.X2, b.Rect.Y2},
	})
}

// RawResult is the immutable OCR response for one page image, matching the
// JSON emitted by the OCR server's /ocr endpoint.
type RawResult struct {
	Text       string `json:"text"`
	RawText    string `json:"raw_text"`
	Boxes      []Box  `json:"boxes"`
	ImageDims  Dims   `json:"image_dims"`
	PromptType string `json:"prompt_type"`
}

// Block is one parsed, typed, positioned unit of OCR output. Before
// resolution Rect holds the approximate coordinates from the tag stream
// (possibly 0–1000 normalized); after resolution it is in page pixels.
// A zero Rect marks gap text that carried no coordinates of its own.
//
// Seq is the block's position in parse order. It survives resolution and
// layout reordering, so collaborators that work on the flat block list
// (like the figure slicer) can refer to a block without aliasing it.
type Block struct {
	Seq     int
	Type    string
	Content string
	Rect    geo.Rect
}
