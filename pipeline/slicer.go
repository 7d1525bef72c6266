package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/wudi/scan2doc/observability"
	"github.com/wudi/scan2doc/ocr"
)

// sliceFigures crops each image-typed block out of the page and re-encodes
// it as JPEG. A failed slice leaves its block without an asset, which
// renders as a broken link downstream; it never fails the page.
func (g *Generator) sliceFigures(pageImage []byte, blocks []ocr.Block) (map[int]string, map[string][]byte) {
	hasFigure := false
	for _, b := range blocks {
		if ocr.IsImage(b.Type) {
			hasFigure = true
			break
		}
	}
	if !hasFigure || len(pageImage) == 0 {
		return nil, nil
	}

	page, err := imaging.Decode(bytes.NewReader(pageImage))
	if err != nil {
		g.logger.Warn("page image undecodable, figures skipped",
			observability.Error("error", err))
		return nil, nil
	}

	ids := make(map[int]string)
	figures := make(map[string][]byte)
	for _, b := range blocks {
		if !ocr.IsImage(b.Type) || b.Rect.Empty() {
			continue
		}
		crop := imaging.Crop(page, image.Rect(
			int(b.Rect.X1), int(b.Rect.Y1), int(b.Rect.X2), int(b.Rect.Y2)))
		bounds := crop.Bounds()
		if bounds.Dx() == 0 || bounds.Dy() == 0 {
			g.logger.Warn("figure crop outside page", observability.Int("seq", b.Seq))
			continue
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, crop, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
			g.logger.Warn("figure encode failed",
				observability.Int("seq", b.Seq), observability.Error("error", err))
			continue
		}
		id := fmt.Sprintf("fig-%03d", b.Seq)
		ids[b.Seq] = id
		figures[id] = buf.Bytes()
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, figures
}
