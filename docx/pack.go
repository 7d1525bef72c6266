package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/wudi/scan2doc/observability"
)

// emuPerPoint converts typographic points to English Metric Units.
const emuPerPoint = 12700

// figureBoxPt bounds embedded figures to a square box, preserving aspect.
const figureBoxPt = 450.0

// Options configures synthesis.
type Options struct {
	Logger observability.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(l observability.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Synthesize converts assembled Markdown into a Word-compatible OOXML
// package. images maps figure asset IDs to their encoded bytes; a
// referenced ID with no entry degrades to its alt text.
func Synthesize(md string, images map[string][]byte, opts ...Option) ([]byte, error) {
	o := Options{Logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	blocks := parseBlocks([]byte(md))
	cjk := cjkRatio(md) > cjkThreshold

	p := &packer{
		images: images,
		logger: o.Logger,
		rels:   make(map[string]imageRel),
	}
	body := p.renderBlocks(blocks, cjk)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := p.writeParts(zw, body, cjk); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: close package: %w", err)
	}
	return buf.Bytes(), nil
}

type imageRel struct {
	id   string
	name string
	data []byte
}

type packer struct {
	images   map[string][]byte
	logger   observability.Logger
	rels     map[string]imageRel
	relCount int
	drawID   int
}

func (p *packer) renderBlocks(blocks []block, cjk bool) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.kind {
		case blockParagraph:
			p.renderParagraph(&sb, b.para, cjk)
		case blockTable:
			p.renderTable(&sb, b.table, cjk)
		}
	}
	return sb.String()
}

func (p *packer) renderParagraph(sb *strings.Builder, para *paragraph, cjk bool) {
	sb.WriteString("<w:p><w:pPr>")
	if para.heading > 0 {
		fmt.Fprintf(sb, `<w:pStyle w:val="Heading%d"/><w:spacing w:before="240" w:after="120"/>`, para.heading)
	} else if cjk {
		sb.WriteString(`<w:spacing w:after="0"/><w:ind w:firstLineChars="200" w:firstLine="0"/>`)
	}
	sb.WriteString("</w:pPr>")
	for _, r := range para.runs {
		p.renderRun(sb, r)
	}
	sb.WriteString("</w:p>")
}

func (p *packer) renderRun(sb *strings.Builder, r Run) {
	switch t := r.(type) {
	case TextRun:
		sb.WriteString("<w:r>")
		if t.Bold || t.Italic {
			sb.WriteString("<w:rPr>")
			if t.Bold {
				sb.WriteString("<w:b/>")
			}
			if t.Italic {
				sb.WriteString("<w:i/>")
			}
			sb.WriteString("</w:rPr>")
		}
		sb.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(sb, []byte(t.Text))
		sb.WriteString("</w:t></w:r>")
	case BreakRun:
		sb.WriteString("<w:r><w:br/></w:r>")
	case MathRun:
		if t.OMML != "" {
			sb.WriteString(t.OMML)
			return
		}
		p.renderRun(sb, TextRun{Text: t.Fallback})
	case ImageRun:
		p.renderImage(sb, t)
	default:
		// The run set is closed; a new implementation is a bug here.
		panic(fmt.Sprintf("docx: unknown run type %T", r))
	}
}

func (p *packer) renderImage(sb *strings.Builder, r ImageRun) {
	data, ok := p.images[r.AssetID]
	if !ok {
		p.logger.Warn("figure asset missing", observability.String("id", r.AssetID))
		p.renderRun(sb, TextRun{Text: r.Alt})
		return
	}
	rel, ok := p.rels[r.AssetID]
	if !ok {
		p.relCount++
		rel = imageRel{
			id:   fmt.Sprintf("rIdImg%d", p.relCount),
			name: fmt.Sprintf("media/figure%d%s", p.relCount, imageExt(data)),
			data: data,
		}
		p.rels[r.AssetID] = rel
	}

	cx, cy := figureEMU(data)
	p.drawID++
	fmt.Fprintf(sb, `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:docPr id="%d" name="Figure %d"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="%d" name="Figure %d"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		cx, cy, p.drawID, p.drawID, p.drawID, p.drawID, rel.id, cx, cy)
}

// figureEMU fits the image into the figure box, preserving aspect ratio.
func figureEMU(data []byte) (int64, int64) {
	w, h := figureBoxPt, figureBoxPt
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
		ratio := float64(cfg.Height) / float64(cfg.Width)
		if ratio > 1 {
			w = figureBoxPt / ratio
		} else {
			h = figureBoxPt * ratio
		}
	}
	return int64(w * emuPerPoint), int64(h * emuPerPoint)
}

func imageExt(data []byte) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return ".png"
	}
	return ".jpg"
}

func (p *packer) renderTable(sb *strings.Builder, tbl *tableBlock, cjk bool) {
	sb.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/>`)
	if tbl.borderless {
		sb.WriteString("<w:tblBorders>" +
			`<w:top w:val="none"/><w:left w:val="none"/><w:bottom w:val="none"/>` +
			`<w:right w:val="none"/><w:insideH w:val="none"/><w:insideV w:val="none"/>` +
			"</w:tblBorders>")
	} else {
		sb.WriteString("<w:tblBorders>" +
			`<w:top w:val="single" w:sz="4"/><w:left w:val="single" w:sz="4"/>` +
			`<w:bottom w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/>` +
			`<w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>` +
			"</w:tblBorders>")
	}
	sb.WriteString("</w:tblPr>")

	for _, row := range tbl.rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:tcPr>")
			if cell.widthPct > 0 {
				fmt.Fprintf(sb, `<w:tcW w:w="%d" w:type="pct"/>`, cell.widthPct*50)
			}
			sb.WriteString("</w:tcPr>")
			inner := p.renderBlocks(cell.blocks, false)
			if inner == "" {
				// Word requires at least one paragraph per cell.
				inner = "<w:p/>"
			}
			sb.WriteString(inner)
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="jpg" ContentType="image/jpeg"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
 xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
 xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
 xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"
 xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math">
<w:body>`

const documentFooter = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr>
</w:body>
</w:document>`

func (p *packer) writeParts(zw *zip.Writer, body string, cjk bool) error {
	parts := []struct {
		name, data string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/document.xml", documentHeader + body + documentFooter},
		{"word/styles.xml", stylesXML(cjk)},
		{"word/_rels/document.xml.rels", p.documentRels()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			return fmt.Errorf("docx: write %s: %w", part.name, err)
		}
	}
	for _, rel := range p.sortedRels() {
		w, err := zw.Create("word/" + rel.name)
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", rel.name, err)
		}
		if _, err := w.Write(rel.data); err != nil {
			return fmt.Errorf("docx: write %s: %w", rel.name, err)
		}
	}
	return nil
}

func (p *packer) sortedRels() []imageRel {
	out := make([]imageRel, 0, len(p.rels))
	for i := 1; i <= p.relCount; i++ {
		id := fmt.Sprintf("rIdImg%d", i)
		for _, rel := range p.rels {
			if rel.id == id {
				out = append(out, rel)
			}
		}
	}
	return out
}

func (p *packer) documentRels() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + "\n" +
		`<Relationship Id="rIdStyles" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` + "\n")
	for _, rel := range p.sortedRels() {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`+"\n", rel.id, rel.name)
	}
	sb.WriteString("</Relationships>")
	return sb.String()
}

func stylesXML(cjk bool) string {
	fonts := `<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/>`
	if cjk {
		fonts = `<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="SimSun"/>`
	}
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr>` + fonts + `<w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>`)
	sizes := []int{32, 28, 26, 24}
	for i, sz := range sizes {
		fmt.Fprintf(&sb, `<w:style w:type="paragraph" w:styleId="Heading%d"><w:name w:val="heading %d"/><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr></w:style>`,
			i+1, i+1, sz)
	}
	sb.WriteString("</w:styles>")
	return sb.String()
}
