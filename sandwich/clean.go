package sandwich

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/wudi/scan2doc/latex"
)

var (
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdImageRe = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLinkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mathRe    = regexp.MustCompile(`\${1,2}([^$]+?)\${1,2}`)
	brRe      = regexp.MustCompile(`<br\s*/?>`)
)

// cleanText turns a block's content into the plain text that goes into the
// invisible layer: tables flattened, markup stripped, math linearized.
func cleanText(s string) string {
	s = flattenTables(s)
	s = brRe.ReplaceAllString(s, "\n")
	s = headingRe.ReplaceAllString(s, "")
	s = mdImageRe.ReplaceAllString(s, "$1")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "**", "")
	s = mathRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.Trim(m, "$")
		return latex.Convert(inner)
	})
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// flattenTables rewrites every <table> fragment as plain text: rows become
// lines, cells are separated by two spaces, entities are decoded.
func flattenTables(s string) string {
	lower := strings.ToLower(s)
	if !strings.Contains(lower, "<table") {
		return s
	}
	var out strings.Builder
	rest := s
	for {
		idx := strings.Index(strings.ToLower(rest), "<table")
		if idx < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:idx])
		end := strings.Index(strings.ToLower(rest[idx:]), "</table>")
		var fragment string
		if end < 0 {
			fragment = rest[idx:]
			rest = ""
		} else {
			fragment = rest[idx : idx+end+len("</table>")]
			rest = rest[idx+end+len("</table>"):]
		}
		out.WriteString(flattenOneTable(fragment))
		if rest == "" {
			return out.String()
		}
	}
}

func flattenOneTable(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var rows []string
	var cells []string
	var cell strings.Builder
	inCell := false

	flushCell := func() {
		if !inCell {
			return
		}
		if text := strings.TrimSpace(cell.String()); text != "" {
			cells = append(cells, text)
		}
		cell.Reset()
		inCell = false
	}
	flushRow := func() {
		flushCell()
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, "  "))
			cells = nil
		}
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "tr":
				flushRow()
			case "td", "th":
				flushCell()
				inCell = true
			case "br":
				if inCell {
					cell.WriteString(" ")
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "td", "th":
				flushCell()
			case "tr":
				flushRow()
			}
		case html.TextToken:
			if inCell {
				cell.WriteString(z.Token().Data)
			}
		}
	}
	flushRow()
	return strings.Join(rows, "\n")
}
