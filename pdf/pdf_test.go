package pdf

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"
	"testing"

	"github.com/wudi/scan2doc/fonts"
)

func TestBuilderInvisibleTextPage(t *testing.T) {
	b := NewBuilder()
	f := b.AddFont(fonts.Helvetica())
	b.NewPage(612, 792).DrawText(f, 12, 72, 700, TextInvisible, "Hello (world)")

	out, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, want := range []string{
		"%PDF-1.7",
		"/Type /Catalog",
		"/Type /Pages",
		"/Type /Page",
		"/BaseFont /Helvetica",
		"3 Tr",
		`(Hello \(world\)) Tj`,
		"startxref",
		"%%EOF",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestXrefOffsetPointsAtTable(t *testing.T) {
	b := NewBuilder()
	f := b.AddFont(fonts.Helvetica())
	b.NewPage(100, 100).DrawText(f, 10, 0, 0, TextFill, "x")
	out, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	s := string(out)
	i := strings.LastIndex(s, "startxref\n")
	if i < 0 {
		t.Fatal("no startxref")
	}
	rest := s[i+len("startxref\n"):]
	nl := strings.IndexByte(rest, '\n')
	off, err := strconv.Atoi(rest[:nl])
	if err != nil {
		t.Fatalf("bad startxref value: %v", err)
	}
	if !strings.HasPrefix(s[off:], "xref\n") {
		t.Errorf("startxref %d does not point at xref table: %q", off, s[off:off+10])
	}
}

func TestObjectOffsetsResolve(t *testing.T) {
	b := NewBuilder()
	b.NewPage(100, 100)
	out, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)

	i := strings.Index(s, "xref\n")
	lines := strings.Split(s[i:], "\n")
	// lines[1] is "0 N", lines[2] the free entry; object k is lines[2+k].
	for num, line := range lines[3:] {
		if !strings.HasSuffix(line, " n ") {
			break
		}
		off, err := strconv.Atoi(strings.Fields(line)[0])
		if err != nil {
			t.Fatalf("bad entry %q", line)
		}
		want := strconv.Itoa(num+1) + " 0 obj"
		if !strings.HasPrefix(s[off:], want) {
			t.Errorf("object %d offset %d points at %q", num+1, off, s[off:off+12])
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{612, "612"},
		{0.5, "0.5"},
		{489.6, "489.6"},
		{-3.25, "-3.25"},
	}
	for _, c := range cases {
		if got := formatNumber(c.in); got != c.want {
			t.Errorf("formatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeImageJPEGPassthrough(t *testing.T) {
	var buf bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()

	img, err := DecodeImage(raw)
	if err != nil {
		t.Fatal(err)
	}
	if img.Filter != "DCTDecode" {
		t.Errorf("filter = %s", img.Filter)
	}
	if img.Width != 8 || img.Height != 4 {
		t.Errorf("dims = %dx%d", img.Width, img.Height)
	}
	if !bytes.Equal(img.Data, raw) {
		t.Error("JPEG data must pass through unchanged")
	}
}

func TestDecodeImagePNGAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 128})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if img.Filter != "FlateDecode" || img.ColorSpace != "DeviceRGB" {
		t.Errorf("filter/cs = %s/%s", img.Filter, img.ColorSpace)
	}
	if img.SMask == nil {
		t.Fatal("translucent PNG must carry a soft mask")
	}
	if img.SMask.ColorSpace != "DeviceGray" {
		t.Errorf("smask cs = %s", img.SMask.ColorSpace)
	}
}

func TestDecodeImageOpaquePNGHasNoMask(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	img, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if img.SMask != nil {
		t.Error("opaque PNG must not carry a mask")
	}
}

func TestDecodeImageUnsupported(t *testing.T) {
	if _, err := DecodeImage([]byte("GIF89a...")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestBuiltinEncodeReplacesUnmappable(t *testing.T) {
	b := NewBuilder()
	f := b.AddFont(fonts.Helvetica())
	enc, isHex := f.Encode("A好B")
	if isHex {
		t.Fatal("builtin must encode as literal string")
	}
	if string(enc) != "A?B" {
		t.Errorf("enc = %q", enc)
	}
}
