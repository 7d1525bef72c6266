package sandwich

import (
	"strings"

	"github.com/wudi/scan2doc/fonts"
)

const (
	lineSpacing  = 1.2
	minFontSize  = 1.0
	maxFontSize  = 96.0
	fitIteration = 20
)

type fitted struct {
	size  float64
	lines []string
}

// fitText finds the largest font size whose wrapped lines fit the block,
// by binary search over the size with a fixed iteration count. When even
// the minimum size overflows, the minimum is returned and the overflow is
// drawn anyway; clipped text beats missing text.
func fitText(f *fonts.Font, text string, width, height float64) fitted {
	best := fitted{size: minFontSize, lines: wrapText(f, text, width, minFontSize)}
	lo, hi := minFontSize, maxFontSize
	for i := 0; i < fitIteration; i++ {
		size := (lo + hi) / 2
		lines := wrapText(f, text, width, size)
		if fits(lines, size, height) {
			best = fitted{size: size, lines: lines}
			lo = size
		} else {
			hi = size
		}
	}
	return best
}

func fits(lines []string, size, height float64) bool {
	return float64(len(lines))*size*lineSpacing <= height
}

// wrapText breaks text into lines no wider than width. Existing newlines
// are preserved, whitespace-separated tokens pack greedily, and a token
// wider than the whole line is fragmented per rune so unspaced CJK text
// still wraps.
func wrapText(f *fonts.Font, text string, width, size float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		tokens := strings.Fields(para)
		if len(tokens) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		flush := func() {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
		}
		for _, tok := range tokens {
			if f.MeasureString(tok, size) > width {
				flush()
				lines = append(lines, fragmentToken(f, tok, width, size)...)
				if len(lines) > 0 {
					// Continue packing after the final fragment.
					cur = lines[len(lines)-1]
					lines = lines[:len(lines)-1]
				}
				continue
			}
			candidate := tok
			if cur != "" {
				candidate = cur + " " + tok
			}
			if f.MeasureString(candidate, size) <= width {
				cur = candidate
				continue
			}
			flush()
			cur = tok
		}
		flush()
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// fragmentToken splits one oversized token at rune boundaries.
func fragmentToken(f *fonts.Font, tok string, width, size float64) []string {
	var out []string
	cur := ""
	for _, r := range tok {
		candidate := cur + string(r)
		if cur != "" && f.MeasureString(candidate, size) > width {
			out = append(out, cur)
			cur = string(r)
			continue
		}
		cur = candidate
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}
