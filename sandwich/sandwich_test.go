package sandwich

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/wudi/scan2doc/fonts"
	"github.com/wudi/scan2doc/geo"
	"github.com/wudi/scan2doc/ocr"
)

func pageJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBuildProducesSandwich(t *testing.T) {
	res := &ocr.RawResult{
		RawText:   "<|ref|>text<|/ref|><|det|>[[100, 100, 1400, 300]]<|/det|>The printed sentence.",
		ImageDims: ocr.Dims{W: 1500, H: 2000},
	}
	out, err := New().Build(context.Background(), res, pageJPEG(t, 1500, 2000))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, want := range []string{
		"%PDF-1.7",
		"/Filter /DCTDecode",
		"3 Tr",
		"(The printed sentence.) Tj",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
	// 1500px at 150 DPI is 720pt.
	if !strings.Contains(s, "/MediaBox [0 0 720 960]") {
		t.Errorf("media box wrong:\n%s", s[:200])
	}
}

func TestBuildSkipsImageBlocks(t *testing.T) {
	res := &ocr.RawResult{
		RawText: "<|ref|>image<|/ref|><|det|>[[100, 100, 800, 800]]<|/det|>A painting of a dog" +
			"<|ref|>text<|/ref|><|det|>[[100, 900, 800, 1000]]<|/det|>Printed words",
		ImageDims: ocr.Dims{W: 1000, H: 1000},
	}
	out, err := New().Build(context.Background(), res, pageJPEG(t, 1000, 1000))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Contains(s, "(A painting of a dog)") {
		t.Error("figure region should carry no text layer")
	}
	if !strings.Contains(s, "(Printed words) Tj") {
		t.Error("text block missing from layer")
	}
}

func TestBuildRejectsUnsupportedImage(t *testing.T) {
	res := &ocr.RawResult{
		RawText:   "plain text",
		ImageDims: ocr.Dims{W: 100, H: 100},
	}
	_, err := New().Build(context.Background(), res, []byte("GIF89a..."))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("err = %v, want ErrUnsupportedImage", err)
	}
}

func TestBuildMissingRawTextIsFatal(t *testing.T) {
	res := &ocr.RawResult{ImageDims: ocr.Dims{W: 100, H: 100}}
	_, err := New().Build(context.Background(), res, pageJPEG(t, 100, 100))
	if !errors.Is(err, ocr.ErrMissingRawText) {
		t.Fatalf("err = %v, want ErrMissingRawText", err)
	}
}

func TestRepairTables(t *testing.T) {
	blocks := []ocr.Block{
		{Type: ocr.BlockTable, Content: "  ", Rect: geo.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Type: ocr.BlockText, Content: "<table><tr><td>A</td></tr></table>"},
		{Type: ocr.BlockText, Content: "after"},
	}
	got := repairTables(blocks)
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	if !strings.Contains(got[0].Content, "<table>") || got[0].Type != ocr.BlockTable {
		t.Errorf("markup not moved into table block: %+v", got[0])
	}
	if got[1].Content != "after" {
		t.Errorf("unrelated block disturbed: %+v", got[1])
	}
}

func TestRepairTablesKeepsFollowerText(t *testing.T) {
	blocks := []ocr.Block{
		{Type: ocr.BlockTable, Content: "", Rect: geo.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{
			Type:    ocr.BlockText,
			Content: "Lead-in text. <table><tr><td>A</td></tr></table> Trailing note.",
			Rect:    geo.Rect{X1: 0, Y1: 200, X2: 100, Y2: 260},
		},
	}
	got := repairTables(blocks)
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	if got[0].Content != "<table><tr><td>A</td></tr></table>" {
		t.Errorf("table block content = %q", got[0].Content)
	}
	if got[1].Content != "Lead-in text. Trailing note." {
		t.Errorf("follower residue = %q", got[1].Content)
	}
	if got[1].Rect.Y1 != 200 {
		t.Errorf("follower moved: %+v", got[1].Rect)
	}
}

func TestRepairTablesLeavesFilledTablesAlone(t *testing.T) {
	blocks := []ocr.Block{
		{Type: ocr.BlockTable, Content: "<table><tr><td>X</td></tr></table>"},
		{Type: ocr.BlockText, Content: "<table>other</table>"},
	}
	if got := repairTables(blocks); len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
}

func TestCleanTextFlattensTables(t *testing.T) {
	in := "<table><tr><td>a &amp; b</td><td>c</td></tr><tr><td>d</td></tr></table>"
	want := "a & b  c\nd"
	if got := cleanText(in); got != want {
		t.Errorf("cleanText = %q, want %q", got, want)
	}
}

func TestCleanTextStripsMarkup(t *testing.T) {
	cases := []struct{ in, want string }{
		{"## Heading text", "Heading text"},
		{"see ![fig one](scan2doc-img:a)", "see fig one"},
		{"a [link](http://x) here", "a link here"},
		{"**bold** stays", "bold stays"},
		{`boils at $100^{\circ}\mathrm{C}$ here`, "boils at 100°C here"},
		{"line<br/>break", "line\nbreak"},
	}
	for _, c := range cases {
		if got := cleanText(c.in); got != c.want {
			t.Errorf("cleanText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFitTextPrefersLargerSizes(t *testing.T) {
	f := fonts.Helvetica()
	small := fitText(f, "word", 200, 20)
	if small.size <= minFontSize {
		t.Errorf("short text in a roomy block should fit above minimum, got %v", small.size)
	}
	long := strings.Repeat("lorem ipsum dolor ", 50)
	big := fitText(f, long, 200, 20)
	if big.size >= small.size {
		t.Errorf("long text must fit at a smaller size: %v >= %v", big.size, small.size)
	}
}

func TestWrapTextGreedyAndFragmenting(t *testing.T) {
	f := fonts.Helvetica()
	// At size 10, "aa bb cc" is ~13pt per token pair.
	lines := wrapText(f, "aa bb cc", 30, 10)
	if len(lines) < 2 {
		t.Errorf("narrow width should wrap: %q", lines)
	}
	for _, line := range lines {
		if f.MeasureString(line, 10) > 30+1e-9 {
			t.Errorf("line %q exceeds width", line)
		}
	}

	// One token wider than the line must fragment per rune.
	frag := wrapText(f, "abcdefghij", 15, 10)
	if len(frag) < 3 {
		t.Errorf("oversized token should fragment: %q", frag)
	}
	if strings.Join(frag, "") != "abcdefghij" {
		t.Errorf("fragmentation lost runes: %q", frag)
	}
}

func TestWrapTextPreservesNewlines(t *testing.T) {
	f := fonts.Helvetica()
	lines := wrapText(f, "one\ntwo", 1000, 10)
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %q", lines)
	}
}

func TestContainsCJK(t *testing.T) {
	if containsCJK("latin only") {
		t.Error("false positive")
	}
	if !containsCJK("mixed 中文") {
		t.Error("false negative")
	}
}
