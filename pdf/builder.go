package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wudi/scan2doc/fonts"
)

// TextRenderMode selects the Tr operator value for drawn text.
type TextRenderMode int

const (
	TextFill      TextRenderMode = 0
	TextStroke    TextRenderMode = 1
	TextInvisible TextRenderMode = 3
)

// Builder assembles a document page by page with a fluent API.
type Builder struct {
	doc       *Document
	pages     []*Page
	fonts     []*Font
	fontCount int
}

// NewBuilder creates an empty document builder.
func NewBuilder() *Builder {
	return &Builder{doc: NewDocument()}
}

// AddFont registers a loaded font and returns its handle for drawing.
func (b *Builder) AddFont(src *fonts.Font) *Font {
	b.fontCount++
	f := &Font{
		res:  Name(fmt.Sprintf("F%d", b.fontCount)),
		ref:  b.doc.Reserve(),
		src:  src,
		used: make(map[uint16]rune),
	}
	b.fonts = append(b.fonts, f)
	return f
}

// Page accumulates content operators and resources for one page.
type Page struct {
	b             *Builder
	width, height float64
	content       bytes.Buffer
	fonts         map[Name]Ref
	xobjects      map[Name]Ref
	imageCount    int
}

// NewPage starts a page of the given size in points.
func (b *Builder) NewPage(width, height float64) *Page {
	p := &Page{
		b:        b,
		width:    width,
		height:   height,
		fonts:    make(map[Name]Ref),
		xobjects: make(map[Name]Ref),
	}
	b.pages = append(b.pages, p)
	return p
}

// DrawImage paints the image scaled into the rectangle at x, y (PDF
// coordinates, origin bottom-left).
func (p *Page) DrawImage(img *Image, x, y, w, h float64) *Page {
	p.imageCount++
	name := Name(fmt.Sprintf("Im%d", p.imageCount))
	p.xobjects[name] = p.b.doc.AddImage(img)
	fmt.Fprintf(&p.content, "q\n%s 0 0 %s %s %s cm\n/%s Do\nQ\n",
		formatNumber(w), formatNumber(h), formatNumber(x), formatNumber(y), name)
	return p
}

// DrawText places a single run of text at x, y with the given render mode.
func (p *Page) DrawText(f *Font, size, x, y float64, mode TextRenderMode, text string) *Page {
	if text == "" {
		return p
	}
	p.fonts[f.res] = f.ref
	encoded, isHex := f.Encode(text)

	fmt.Fprintf(&p.content, "BT\n/%s %s Tf\n", f.res, formatNumber(size))
	if mode != TextFill {
		fmt.Fprintf(&p.content, "%d Tr\n", int(mode))
	}
	fmt.Fprintf(&p.content, "1 0 0 1 %s %s Tm\n", formatNumber(x), formatNumber(y))
	if isHex {
		fmt.Fprintf(&p.content, "<%X> Tj\n", encoded)
	} else {
		fmt.Fprintf(&p.content, "(%s) Tj\n", escapeString(string(encoded)))
	}
	p.content.WriteString("ET\n")
	return p
}

// Finish returns the parent builder.
func (p *Page) Finish() *Builder { return p.b }

// Bytes finalizes fonts, assembles the page tree and serializes the file.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the document to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	for _, f := range b.fonts {
		b.doc.finalizeFont(f)
	}

	pagesRef := b.doc.Reserve()
	kids := make(Array, 0, len(b.pages))
	for _, p := range b.pages {
		contentRef := b.doc.Add(Stream{Dict: Dict{}, Data: p.content.Bytes()})
		resources := Dict{}
		if len(p.fonts) > 0 {
			fd := Dict{}
			for name, ref := range p.fonts {
				fd[name] = ref
			}
			resources["Font"] = fd
		}
		if len(p.xobjects) > 0 {
			xd := Dict{}
			for name, ref := range p.xobjects {
				xd[name] = ref
			}
			resources["XObject"] = xd
		}
		kids = append(kids, b.doc.Add(Dict{
			"Type":      Name("Page"),
			"Parent":    pagesRef,
			"MediaBox":  Array{0, 0, p.width, p.height},
			"Resources": resources,
			"Contents":  contentRef,
		}))
	}
	b.doc.Set(pagesRef, Dict{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": len(kids),
	})
	catalog := b.doc.Add(Dict{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	})
	b.doc.SetRoot(catalog)
	return b.doc.WriteTo(w)
}
