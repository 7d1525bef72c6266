package docx

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/wudi/scan2doc/markdown"
)

// scanTable re-parses a <table> HTML fragment with a constrained scanner.
// Only tr, td and th structure and the width="N%" attribute are honored;
// everything inside a cell is captured verbatim and re-tokenized as
// Markdown. Fragments without a table element report ok=false.
func (c *converter) scanTable(fragment string) (*tableBlock, bool) {
	if !strings.Contains(fragment, "<table") {
		return nil, false
	}
	z := html.NewTokenizer(strings.NewReader(fragment))

	tbl := &tableBlock{}
	var row []tableCell
	inRow := false
	seen := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			switch tok.Data {
			case "table":
				seen = true
				tbl.borderless = hasClass(tok, markdown.LayoutTableClass)
			case "tr":
				row = nil
				inRow = true
			case "td", "th":
				if !inRow {
					continue
				}
				cell := tableCell{
					header:   tok.Data == "th",
					widthPct: widthPercent(tok),
				}
				content := captureCell(z, tok.Data)
				cell.blocks = parseBlocks([]byte(content))
				row = append(row, cell)
			}
		case html.EndTagToken:
			switch tok.Data {
			case "tr":
				if inRow && len(row) > 0 {
					tbl.rows = append(tbl.rows, row)
				}
				inRow = false
			case "table":
				if len(tbl.rows) == 0 {
					return nil, false
				}
				return tbl, true
			}
		}
	}
	if !seen || len(tbl.rows) == 0 {
		return nil, false
	}
	return tbl, true
}

// captureCell accumulates the raw bytes of a cell until its closing tag.
func captureCell(z *html.Tokenizer, tag string) string {
	var sb strings.Builder
	depth := 1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return sb.String()
		}
		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == tag {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == tag {
				depth--
				if depth == 0 {
					return sb.String()
				}
			}
		}
		sb.Write(z.Raw())
	}
}

func hasClass(tok html.Token, class string) bool {
	for _, a := range tok.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// widthPercent parses width="N%" attributes, 0 when absent or malformed.
func widthPercent(tok html.Token) int {
	for _, a := range tok.Attr {
		if a.Key != "width" {
			continue
		}
		val, ok := strings.CutSuffix(strings.TrimSpace(a.Val), "%")
		if !ok {
			return 0
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 || n > 100 {
			return 0
		}
		return n
	}
	return 0
}
