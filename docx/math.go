package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"github.com/wudi/scan2doc/latex"
)

// mathEngine converts LaTeX to MathML. It only ever sees whole "$$…$$"
// sources: the extension's own inline parser mis-advances the reader for
// spans that start past the head of a line, so the main engine claims math
// regions with mathSpanParser and hands just the LaTeX over here.
var mathEngine = goldmark.New(goldmark.WithExtensions(treeblood.MathML()))

var errNoMath = errors.New("docx: no math element produced")

// mathSpan is an inline math region claimed during parsing, before emphasis
// or other inline rules can consume characters inside it.
type mathSpan struct {
	ast.BaseInline
	tex string
}

var kindMathSpan = ast.NewNodeKind("MathSpan")

func (n *mathSpan) Kind() ast.NodeKind { return kindMathSpan }

func (n *mathSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mathSpanParser struct{}

func (p *mathSpanParser) Trigger() []byte { return []byte{'$'} }

func (p *mathSpanParser) Parse(parent ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	delim := []byte("$")
	if bytes.HasPrefix(line, []byte("$$")) {
		delim = []byte("$$")
	}
	rest := line[len(delim):]
	stop := bytes.Index(rest, delim)
	if stop <= 0 {
		return nil
	}
	tex := string(rest[:stop])
	if strings.TrimSpace(tex) == "" || strings.Contains(tex, "$") {
		return nil
	}
	block.Advance(2*len(delim) + stop)
	return &mathSpan{tex: tex}
}

// mathRun converts a LaTeX fragment to a math run. Conversion failure is
// never fatal; it degrades to the unicode rendition as plain text.
func mathRun(src string) Run {
	omml, err := convertOMML(src)
	if err != nil {
		return TextRun{Text: latex.Convert(src)}
	}
	return MathRun{OMML: omml, Fallback: latex.Convert(src)}
}

// convertOMML converts LaTeX to Office Math markup by way of MathML.
func convertOMML(latexSrc string) (string, error) {
	mathNode, err := renderMathML(latexSrc)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(`<m:oMath>`)
	writeOMML(&sb, mathNode)
	sb.WriteString(`</m:oMath>`)
	return sb.String(), nil
}

// renderMathML runs the LaTeX through goldmark's math extension and digs
// the <math> element out of the rendered HTML.
func renderMathML(latexSrc string) (*html.Node, error) {
	source := "$$" + latexSrc + "$$"
	var buf bytes.Buffer
	if err := mathEngine.Convert([]byte(source), &buf); err != nil {
		return nil, fmt.Errorf("docx: render math: %w", err)
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("docx: parse mathml: %w", err)
	}
	if m := findElement(doc, "math"); m != nil {
		return m, nil
	}
	return nil, errNoMath
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return sb.String()
}

// writeOMML maps MathML structure onto the OMML element set. Anything
// outside the mapped set falls through to its children, so unknown
// constructs lose layout but keep their text.
func writeOMML(sb *strings.Builder, n *html.Node) {
	switch n.Data {
	case "math", "mrow", "mstyle", "semantics", "mpadded", "merror", "mtable", "mtr", "mtd":
		writeChildren(sb, n)
	case "annotation", "annotation-xml":
	case "mi", "mn", "mo", "mtext", "ms":
		writeMathText(sb, nodeText(n))
	case "mfrac":
		kids := elementChildren(n)
		if len(kids) != 2 {
			writeChildren(sb, n)
			return
		}
		sb.WriteString("<m:f><m:num>")
		writeOMML(sb, kids[0])
		sb.WriteString("</m:num><m:den>")
		writeOMML(sb, kids[1])
		sb.WriteString("</m:den></m:f>")
	case "msup":
		writeScript(sb, n, "m:sSup", "m:sup")
	case "msub":
		writeScript(sb, n, "m:sSub", "m:sub")
	case "msubsup":
		kids := elementChildren(n)
		if len(kids) != 3 {
			writeChildren(sb, n)
			return
		}
		sb.WriteString("<m:sSubSup><m:e>")
		writeOMML(sb, kids[0])
		sb.WriteString("</m:e><m:sub>")
		writeOMML(sb, kids[1])
		sb.WriteString("</m:sub><m:sup>")
		writeOMML(sb, kids[2])
		sb.WriteString("</m:sup></m:sSubSup>")
	case "msqrt":
		sb.WriteString(`<m:rad><m:radPr><m:degHide m:val="1"/></m:radPr><m:deg/><m:e>`)
		writeChildren(sb, n)
		sb.WriteString("</m:e></m:rad>")
	case "mroot":
		kids := elementChildren(n)
		if len(kids) != 2 {
			writeChildren(sb, n)
			return
		}
		sb.WriteString("<m:rad><m:deg>")
		writeOMML(sb, kids[1])
		sb.WriteString("</m:deg><m:e>")
		writeOMML(sb, kids[0])
		sb.WriteString("</m:e></m:rad>")
	case "mover":
		writeLimit(sb, n, "m:limUpp")
	case "munder":
		writeLimit(sb, n, "m:limLow")
	default:
		writeChildren(sb, n)
	}
}

func writeChildren(sb *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			writeOMML(sb, c)
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				writeMathText(sb, c.Data)
			}
		}
	}
}

func writeScript(sb *strings.Builder, n *html.Node, wrapper, script string) {
	kids := elementChildren(n)
	if len(kids) != 2 {
		writeChildren(sb, n)
		return
	}
	sb.WriteString("<" + wrapper + "><m:e>")
	writeOMML(sb, kids[0])
	sb.WriteString("</m:e><" + script + ">")
	writeOMML(sb, kids[1])
	sb.WriteString("</" + script + "></" + wrapper + ">")
}

func writeLimit(sb *strings.Builder, n *html.Node, wrapper string) {
	kids := elementChildren(n)
	if len(kids) != 2 {
		writeChildren(sb, n)
		return
	}
	sb.WriteString("<" + wrapper + "><m:e>")
	writeOMML(sb, kids[0])
	sb.WriteString("</m:e><m:lim>")
	writeOMML(sb, kids[1])
	sb.WriteString("</m:lim></" + wrapper + ">")
}

func writeMathText(sb *strings.Builder, text string) {
	sb.WriteString(`<m:r><m:t xml:space="preserve">`)
	xml.EscapeText(sb, []byte(text))
	sb.WriteString("</m:t></m:r>")
}
