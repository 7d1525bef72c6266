package ocr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wudi/scan2doc/geo"
)

// markerRe locates one <|ref|>TYPE<|/ref|><|det|>[[coords]]<|/det|> marker.
// Text between markers is handled with explicit index bookkeeping, not
// regex tricks, so gap text can never be swallowed by a greedy match.
var markerRe = regexp.MustCompile(`<\|ref\|>(.*?)<\|/ref\|><\|det\|>\s*\[\[(.*?)\]\]\s*<\|/det\|>`)

// mathDelims rewrites \(..\) and \[..\] to the $ forms that downstream
// Markdown tooling recognizes.
var mathDelims = strings.NewReplacer(`\(`, "$", `\)`, "$", `\[`, "$$", `\]`, "$$")

// Parse scans the raw tagged text and returns blocks in document order.
//
// Non-whitespace text before the first marker, between markers, or after the
// last marker is preserved verbatim as its own text-typed block with a zero
// Rect. If the stream has no markers at all, the whole text is returned as a
// single text block. An entirely empty stream is ErrMissingRawText.
func Parse(rawText string) ([]Block, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrMissingRawText
	}

	matches := markerRe.FindAllStringSubmatchIndex(rawText, -1)
	if len(matches) == 0 {
		return []Block{{Type: BlockText, Content: rawText}}, nil
	}

	var blocks []Block
	cursor := 0
	for i, m := range matches {
		if gap := strings.TrimSpace(rawText[cursor:m[0]]); gap != "" {
			blocks = append(blocks, Block{Type: BlockText, Content: gap})
		}

		label := strings.TrimSpace(rawText[m[2]:m[3]])
		coords, ok := parseCoords(rawText[m[4]:m[5]])

		// Content runs to the next marker or the end of the stream.
		end := len(rawText)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(rawText[m[1]:end])
		content = mathDelims.Replace(content)

		cursor = end
		if !ok {
			// Malformed coordinates discard the block, but its trailing
			// content is still kept so text is never silently lost.
			if content != "" {
				blocks = append(blocks, Block{Type: BlockText, Content: content})
			}
			continue
		}
		if label == "" {
			label = BlockText
		}
		blocks = append(blocks, Block{Type: label, Content: content, Rect: coords})
	}
	for i := range blocks {
		blocks[i].Seq = i
	}
	return blocks, nil
}

// parseCoords extracts exactly four comma-separated numbers from the body
// of a [[…]] coordinate list.
func parseCoords(body string) (geo.Rect, bool) {
	parts := strings.Split(body, ",")
	vals := make([]float64, 0, 4)
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "[]")
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return geo.Rect{}, false
		}
		vals = append(vals, v)
	}
	if len(vals) != 4 {
		return geo.Rect{}, false
	}
	return geo.Rect{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, true
}
