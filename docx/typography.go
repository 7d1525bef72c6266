package docx

import (
	"unicode"

	"golang.org/x/text/width"
)

// cjkThreshold is the fraction of wide runes above which the document gets
// CJK typography: an East Asian font family, two-character first-line
// indents and no spacing after paragraphs.
const cjkThreshold = 0.20

// cjkRatio returns the fraction of non-space, non-markup runes that are
// East Asian wide or fullwidth.
func cjkRatio(s string) float64 {
	var total, wide int
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			continue
		case r == '>':
			inTag = false
			continue
		case inTag || unicode.IsSpace(r):
			continue
		}
		total++
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			wide++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(wide) / float64(total)
}
