package docx

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"

	"github.com/wudi/scan2doc/markdown"
)

// engine claims $..$ and $$..$$ regions during inline parsing, so emphasis
// and other inline rules never touch their contents.
var engine = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithInlineParsers(
			util.Prioritized(&mathSpanParser{}, 150),
		),
	),
)

// mathSpanRe matches a $..$ or $$..$$ span inside text that arrives through
// raw HTML fragments, which never pass the math inline parser.
var mathSpanRe = regexp.MustCompile(`\${1,2}([^$]+?)\${1,2}`)

// parseBlocks tokenizes Markdown into the document block model.
func parseBlocks(src []byte) []block {
	doc := engine.Parser().Parse(text.NewReader(src))
	c := &converter{src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		c.convertBlock(n)
	}
	return c.blocks
}

type converter struct {
	src    []byte
	blocks []block

	// Formatting state driven by raw inline HTML tags.
	htmlBold   bool
	htmlItalic bool
}

func (c *converter) convertBlock(n ast.Node) {
	switch t := n.(type) {
	case *ast.Heading:
		level := t.Level
		if level > 4 {
			level = 4
		}
		c.appendParagraph(&paragraph{heading: level, runs: c.collectInlines(t)})
	case *ast.Paragraph, *ast.TextBlock:
		runs := c.collectInlines(n)
		if len(runs) > 0 {
			c.appendParagraph(&paragraph{runs: runs})
		}
	case *ast.HTMLBlock:
		raw := c.htmlBlockText(t)
		if tbl, ok := c.scanTable(raw); ok {
			c.blocks = append(c.blocks, block{kind: blockTable, table: tbl})
		}
	case *ast.FencedCodeBlock:
		c.appendCodeLines(t.Lines())
	case *ast.CodeBlock:
		c.appendCodeLines(t.Lines())
	case *ast.List:
		marker := "• "
		for item := t.FirstChild(); item != nil; item = item.NextSibling() {
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				runs := c.collectInlines(child)
				if len(runs) == 0 {
					continue
				}
				runs = append([]Run{TextRun{Text: marker}}, runs...)
				c.appendParagraph(&paragraph{runs: runs})
			}
		}
	case *ast.Blockquote:
		for child := t.FirstChild(); child != nil; child = child.NextSibling() {
			c.convertBlock(child)
		}
	case *ast.ThematicBreak:
		// No visual equivalent worth emitting.
	}
}

func (c *converter) appendParagraph(p *paragraph) {
	c.blocks = append(c.blocks, block{kind: blockParagraph, para: p})
}

func (c *converter) appendCodeLines(lines *text.Segments) {
	var runs []Run
	for i := 0; i < lines.Len(); i++ {
		if i > 0 {
			runs = append(runs, BreakRun{})
		}
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(c.src)), "\n")
		runs = append(runs, TextRun{Text: line})
	}
	if len(runs) > 0 {
		c.appendParagraph(&paragraph{runs: runs})
	}
}

func (c *converter) htmlBlockText(n *ast.HTMLBlock) string {
	var sb strings.Builder
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		sb.Write(seg.Value(c.src))
	}
	if n.HasClosure() {
		sb.Write(n.ClosureLine.Value(c.src))
	}
	return sb.String()
}

// collectInlines flattens a block's inline children into runs, tracking
// bold and italic state through both Markdown emphasis and raw HTML tags.
func (c *converter) collectInlines(n ast.Node) []Run {
	var runs []Run
	c.htmlBold, c.htmlItalic = false, false
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		c.inline(child, false, false, &runs)
	}
	return runs
}

func (c *converter) inline(n ast.Node, bold, italic bool, runs *[]Run) {
	switch t := n.(type) {
	case *mathSpan:
		*runs = append(*runs, mathRun(t.tex))
	case *ast.Text:
		c.appendText(string(t.Segment.Value(c.src)), bold, italic, runs)
		if t.HardLineBreak() {
			*runs = append(*runs, BreakRun{})
		} else if t.SoftLineBreak() {
			c.appendText(" ", bold, italic, runs)
		}
	case *ast.String:
		c.appendText(string(t.Value), bold, italic, runs)
	case *ast.Emphasis:
		b, i := bold, italic
		if t.Level >= 2 {
			b = true
		} else {
			i = true
		}
		for child := t.FirstChild(); child != nil; child = child.NextSibling() {
			c.inline(child, b, i, runs)
		}
	case *ast.CodeSpan:
		for child := t.FirstChild(); child != nil; child = child.NextSibling() {
			c.inline(child, bold, italic, runs)
		}
	case *ast.Link:
		for child := t.FirstChild(); child != nil; child = child.NextSibling() {
			c.inline(child, bold, italic, runs)
		}
	case *ast.AutoLink:
		c.appendText(string(t.URL(c.src)), bold, italic, runs)
	case *ast.Image:
		*runs = append(*runs, imageRunFromDest(string(t.Destination), altText(t, c.src)))
	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < t.Segments.Len(); i++ {
			seg := t.Segments.At(i)
			sb.Write(seg.Value(c.src))
		}
		c.rawHTML(sb.String(), runs)
	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			c.inline(child, bold, italic, runs)
		}
	}
}

// appendText splits text on math spans and emits text and math runs with
// the current formatting state.
func (c *converter) appendText(s string, bold, italic bool, runs *[]Run) {
	bold = bold || c.htmlBold
	italic = italic || c.htmlItalic
	for s != "" {
		loc := mathSpanRe.FindStringSubmatchIndex(s)
		if loc == nil {
			break
		}
		if lead := s[:loc[0]]; lead != "" {
			*runs = append(*runs, TextRun{Text: lead, Bold: bold, Italic: italic})
		}
		*runs = append(*runs, mathRun(s[loc[2]:loc[3]]))
		s = s[loc[1]:]
	}
	if s != "" {
		*runs = append(*runs, TextRun{Text: s, Bold: bold, Italic: italic})
	}
}

// rawHTML interprets the small tag set the layout stage emits inside cells:
// breaks, bold, italic, and figure images.
func (c *converter) rawHTML(fragment string, runs *[]Run) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "br":
				*runs = append(*runs, BreakRun{})
			case "b", "strong":
				c.htmlBold = true
			case "i", "em":
				c.htmlItalic = true
			case "img":
				var src, alt string
				for _, a := range tok.Attr {
					switch a.Key {
					case "src":
						src = a.Val
					case "alt":
						alt = a.Val
					}
				}
				if src != "" {
					*runs = append(*runs, imageRunFromDest(src, alt))
				}
			}
		case html.EndTagToken:
			switch tok.Data {
			case "b", "strong":
				c.htmlBold = false
			case "i", "em":
				c.htmlItalic = false
			}
		case html.TextToken:
			if tok.Data != "" {
				c.appendText(tok.Data, false, false, runs)
			}
		}
	}
}

func imageRunFromDest(dest, alt string) Run {
	if id, ok := strings.CutPrefix(dest, markdown.ImageScheme); ok {
		return ImageRun{AssetID: id, Alt: alt}
	}
	// External references cannot be embedded; keep the alt text.
	return TextRun{Text: alt}
}

func altText(img *ast.Image, src []byte) string {
	var sb strings.Builder
	for child := img.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
		}
	}
	return sb.String()
}
