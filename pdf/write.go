package pdf

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) WriteString(s string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(s)
	c.n += int64(n)
	c.err = err
}

func (c *countingWriter) Write(p []byte) {
	if c.err != nil {
		return
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
}

// WriteTo serializes the document: header, body objects in numeric order,
// cross-reference table, trailer.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if err := d.validate(); err != nil {
		return 0, err
	}
	cw := &countingWriter{w: bufio.NewWriter(w)}
	cw.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int64, len(d.objects))
	for i, obj := range d.objects {
		offsets[i] = cw.n
		cw.WriteString(strconv.Itoa(i+1) + " 0 obj\n")
		writeValue(cw, obj)
		cw.WriteString("\nendobj\n")
	}

	xrefStart := cw.n
	cw.WriteString("xref\n")
	cw.WriteString(fmt.Sprintf("0 %d\n", len(d.objects)+1))
	cw.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		cw.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	cw.WriteString("trailer\n")
	writeValue(cw, Dict{"Size": len(d.objects) + 1, "Root": d.root})
	cw.WriteString(fmt.Sprintf("\nstartxref\n%d\n%%%%EOF\n", xrefStart))

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

func writeValue(cw *countingWriter, v any) {
	switch t := v.(type) {
	case nil:
		cw.WriteString("null")
	case bool:
		if t {
			cw.WriteString("true")
		} else {
			cw.WriteString("false")
		}
	case int:
		cw.WriteString(strconv.Itoa(t))
	case int64:
		cw.WriteString(strconv.FormatInt(t, 10))
	case float64:
		cw.WriteString(formatNumber(t))
	case Name:
		cw.WriteString("/" + escapeName(string(t)))
	case String:
		cw.WriteString("(" + escapeString(string(t)) + ")")
	case Hex:
		cw.WriteString("<" + strings.ToUpper(hex.EncodeToString(t)) + ">")
	case Ref:
		cw.WriteString(fmt.Sprintf("%d 0 R", t.Num))
	case Array:
		cw.WriteString("[")
		for i, item := range t {
			if i > 0 {
				cw.WriteString(" ")
			}
			writeValue(cw, item)
		}
		cw.WriteString("]")
	case Dict:
		writeDict(cw, t)
	case Stream:
		dict := make(Dict, len(t.Dict)+1)
		for k, val := range t.Dict {
			dict[k] = val
		}
		dict["Length"] = len(t.Data)
		writeDict(cw, dict)
		cw.WriteString("\nstream\n")
		cw.Write(t.Data)
		cw.WriteString("\nendstream")
	default:
		cw.err = fmt.Errorf("pdf: cannot serialize %T", v)
	}
}

func writeDict(cw *countingWriter, d Dict) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	cw.WriteString("<<")
	for _, k := range keys {
		cw.WriteString(" /" + escapeName(k) + " ")
		writeValue(cw, d[Name(k)])
	}
	cw.WriteString(" >>")
}

// formatNumber writes a float without exponent notation, which PDF forbids.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func escapeName(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c > '~' || strings.ContainsRune("()<>[]{}/%#", rune(c)) {
			fmt.Fprintf(&sb, "#%02X", c)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func escapeString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`(`, `\(`,
		`)`, `\)`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}
