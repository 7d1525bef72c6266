// Package markdown renders reconstructed visual rows into Markdown. Rows
// with a single flowing block become plain paragraphs; everything else
// becomes an inline HTML table carrying the layout-table marker class so
// downstream consumers can tell reconstructed layout from genuine data
// tables. Extracted figure images are referenced through the scan2doc-img:
// URI scheme, which the storage collaborator resolves at render time.
package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wudi/scan2doc/layout"
	"github.com/wudi/scan2doc/ocr"
)

// LayoutTableClass marks tables that encode reconstructed page layout
// rather than OCR'd tabular data.
const LayoutTableClass = "layout-table"

// ImageScheme is the logical URI scheme for extracted figure assets.
const ImageScheme = "scan2doc-img:"

var mdImageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)

// Assemble renders visual rows to Markdown. images maps a block's Seq to
// the asset ID of its sliced figure; IDs never referenced by a block are
// appended under a trailing Figures section so no extracted image is
// silently dropped.
func Assemble(rows []layout.Row, pageWidth float64, images map[int]string) string {
	figures := numberFigures(rows, images)

	var out []string
	referenced := make(map[int]bool)
	for _, row := range rows {
		if row.IsPlain() {
			b := row.Columns[0].Blocks[0]
			if text := renderPlainBlock(b, images, figures, referenced); text != "" {
				out = append(out, text)
			}
			continue
		}
		out = append(out, renderTableRow(&row, pageWidth, images, figures, referenced))
	}

	if orphans := orphanedImages(images, referenced, figures); orphans != "" {
		out = append(out, orphans)
	}
	return strings.Join(out, "\n\n")
}

// numberFigures assigns "Figure N" numbers to every sliced image block in
// parse order, independent of the final visual-row order.
func numberFigures(rows []layout.Row, images map[int]string) map[int]int {
	var seqs []int
	for _, row := range rows {
		for _, col := range row.Columns {
			for _, b := range col.Blocks {
				if _, ok := images[b.Seq]; ok && ocr.IsImage(b.Type) {
					seqs = append(seqs, b.Seq)
				}
			}
		}
	}
	// Orphaned assets continue the numbering after all placed figures.
	for seq := range images {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	figures := make(map[int]int)
	n := 0
	for _, seq := range seqs {
		if _, ok := figures[seq]; ok {
			continue
		}
		n++
		figures[seq] = n
	}
	return figures
}

func renderPlainBlock(b ocr.Block, images map[int]string, figures map[int]int, referenced map[int]bool) string {
	if ocr.IsImage(b.Type) {
		if id, ok := images[b.Seq]; ok {
			referenced[b.Seq] = true
			fig := fmt.Sprintf("![Figure %d](%s%s)", figures[b.Seq], ImageScheme, id)
			if caption := strings.TrimSpace(b.Content); caption != "" {
				fig += "\n\n" + caption
			}
			return fig
		}
		// Slicing failed; keep whatever caption text the block carries.
		return strings.TrimSpace(b.Content)
	}
	content := strings.TrimSpace(b.Content)
	if content == "" {
		return ""
	}
	return headingPrefix(b.Type, content) + content
}

// headingPrefix maps heading block types to Markdown markers, unless the
// OCR content already starts with its own.
func headingPrefix(blockType, content string) string {
	if strings.HasPrefix(content, "#") {
		return ""
	}
	switch blockType {
	case ocr.BlockTitle:
		return "# "
	case ocr.BlockSubTitle:
		return "## "
	default:
		return ""
	}
}

func renderTableRow(row *layout.Row, pageWidth float64, images map[int]string, figures map[int]int, referenced map[int]bool) string {
	percents := row.ColumnPercents(pageWidth)

	var sb strings.Builder
	sb.WriteString(`<table class="` + LayoutTableClass + `">` + "\n<tr>\n")
	for i, col := range row.Columns {
		fmt.Fprintf(&sb, `<td width="%d%%">`, percents[i])
		var cells []string
		for _, b := range col.Blocks {
			if cell := renderCellBlock(b, images, figures, referenced); cell != "" {
				cells = append(cells, cell)
			}
		}
		sb.WriteString(strings.Join(cells, "<br/><br/>"))
		sb.WriteString("</td>\n")
	}
	sb.WriteString("</tr>\n</table>")
	return sb.String()
}

// renderCellBlock renders one block for use inside a table cell. HTML
// tables cannot reliably nest Markdown in downstream renderers, so image
// syntax becomes an <img> tag and newlines become explicit breaks.
func renderCellBlock(b ocr.Block, images map[int]string, figures map[int]int, referenced map[int]bool) string {
	if ocr.IsImage(b.Type) {
		if id, ok := images[b.Seq]; ok {
			referenced[b.Seq] = true
			cell := fmt.Sprintf(`<img src="%s%s" alt="Figure %d">`, ImageScheme, id, figures[b.Seq])
			if caption := strings.TrimSpace(b.Content); caption != "" {
				cell += "<br/>" + htmlBreaks(caption)
			}
			return cell
		}
		return htmlBreaks(strings.TrimSpace(b.Content))
	}

	content := strings.TrimSpace(b.Content)
	if content == "" {
		return ""
	}
	if ocr.IsHeading(b.Type) {
		content = "<b>" + content + "</b>"
	}
	content = mdImageRe.ReplaceAllString(content, `<img src="$2" alt="$1">`)
	return htmlBreaks(content)
}

func htmlBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "<br/>")
}

// orphanedImages lists extracted assets that no block referenced, as a
// trailing Figures section continuing the running figure numbers.
func orphanedImages(images map[int]string, referenced map[int]bool, figures map[int]int) string {
	var seqs []int
	for seq := range images {
		if !referenced[seq] {
			seqs = append(seqs, seq)
		}
	}
	if len(seqs) == 0 {
		return ""
	}
	sort.Ints(seqs)

	var sb strings.Builder
	sb.WriteString("## Figures")
	for _, seq := range seqs {
		fmt.Fprintf(&sb, "\n\n![Figure %d](%s%s)", figures[seq], ImageScheme, images[seq])
	}
	return sb.String()
}
