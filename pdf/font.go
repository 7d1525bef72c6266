package pdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wudi/scan2doc/fonts"
)

// Font is a font registered with a Builder. Built-in fonts encode text as
// single Latin-1 bytes; embedded fonts encode as two-byte glyph IDs under
// Identity-H and track usage so the ToUnicode map and width array cover
// exactly the glyphs that appear.
type Font struct {
	res  Name
	ref  Ref
	src  *fonts.Font
	used map[uint16]rune
}

// Res returns the font's resource name (F1, F2, …).
func (f *Font) Res() Name { return f.res }

// Builtin reports whether the font has no embedded program.
func (f *Font) Builtin() bool { return f.src.Builtin() }

// Encode converts text to the string bytes the content stream needs, and
// reports whether they must be written as a hex string.
func (f *Font) Encode(text string) ([]byte, bool) {
	if f.Builtin() {
		out := make([]byte, 0, len(text))
		for _, r := range text {
			if r > 0xFF {
				r = '?'
			}
			out = append(out, byte(r))
		}
		return out, false
	}
	out := make([]byte, 0, len(text)*2)
	for _, r := range text {
		gid := f.src.GlyphIndex(r)
		f.used[gid] = r
		out = append(out, byte(gid>>8), byte(gid))
	}
	return out, true
}

func (d *Document) finalizeFont(f *Font) {
	if f.Builtin() {
		d.Set(f.ref, Dict{
			"Type":     Name("Font"),
			"Subtype":  Name("Type1"),
			"BaseFont": Name(f.src.Name()),
			"Encoding": Name("WinAnsiEncoding"),
		})
		return
	}

	m := f.src.Metrics()
	fontFile := d.Add(Stream{
		Dict: Dict{
			"Filter":  Name("FlateDecode"),
			"Length1": len(f.src.Data()),
		},
		Data: deflate(f.src.Data()),
	})
	descriptor := d.Add(Dict{
		"Type":        Name("FontDescriptor"),
		"FontName":    Name(f.src.Name()),
		"Flags":       4,
		"FontBBox":    Array{m.BBox[0], m.BBox[1], m.BBox[2], m.BBox[3]},
		"ItalicAngle": 0,
		"Ascent":      m.Ascent,
		"Descent":     m.Descent,
		"CapHeight":   m.CapHeight,
		"StemV":       80,
		"FontFile2":   fontFile,
	})
	descendant := d.Add(Dict{
		"Type":     Name("Font"),
		"Subtype":  Name("CIDFontType2"),
		"BaseFont": Name(f.src.Name()),
		"CIDSystemInfo": Dict{
			"Registry":   String("Adobe"),
			"Ordering":   String("Identity"),
			"Supplement": 0,
		},
		"FontDescriptor": descriptor,
		"DW":             1000,
		"W":              f.widthArray(),
		"CIDToGIDMap":    Name("Identity"),
	})
	toUnicode := d.Add(Stream{Dict: Dict{}, Data: f.toUnicodeCMap()})

	d.Set(f.ref, Dict{
		"Type":            Name("Font"),
		"Subtype":         Name("Type0"),
		"BaseFont":        Name(f.src.Name()),
		"Encoding":        Name("Identity-H"),
		"DescendantFonts": Array{descendant},
		"ToUnicode":       toUnicode,
	})
}

func (f *Font) sortedGIDs() []uint16 {
	gids := make([]uint16, 0, len(f.used))
	for gid := range f.used {
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	return gids
}

func (f *Font) widthArray() Array {
	var w Array
	for _, gid := range f.sortedGIDs() {
		width := f.src.RuneWidth(f.used[gid])
		w = append(w, int(gid), Array{width})
	}
	return w
}

// toUnicodeCMap emits the CMap mapping glyph IDs back to their source text,
// which is what makes copy-paste from the invisible layer work.
func (f *Font) toUnicodeCMap() []byte {
	var sb strings.Builder
	sb.WriteString(`/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
`)
	gids := f.sortedGIDs()
	for start := 0; start < len(gids); start += 100 {
		end := start + 100
		if end > len(gids) {
			end = len(gids)
		}
		fmt.Fprintf(&sb, "%d beginbfchar\n", end-start)
		for _, gid := range gids[start:end] {
			r := f.used[gid]
			if r > 0xFFFF {
				// Encode as a UTF-16 surrogate pair.
				r -= 0x10000
				hi := 0xD800 + (r >> 10)
				lo := 0xDC00 + (r & 0x3FF)
				fmt.Fprintf(&sb, "<%04X> <%04X%04X>\n", gid, hi, lo)
				continue
			}
			fmt.Fprintf(&sb, "<%04X> <%04X>\n", gid, r)
		}
		sb.WriteString("endbfchar\n")
	}
	sb.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend\n")
	return []byte(sb.String())
}
