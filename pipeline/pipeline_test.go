package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/wudi/scan2doc/ocr"
)

func pageJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 200
		img.Pix[i+3] = 255
	}
	img.Set(10, 10, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testResult() *ocr.RawResult {
	return &ocr.RawResult{
		RawText: "<|ref|>title<|/ref|><|det|>[[100, 50, 900, 120]]<|/det|>A Document" +
			"<|ref|>text<|/ref|><|det|>[[100, 200, 900, 400]]<|/det|>Some body text." +
			"<|ref|>image<|/ref|><|det|>[[100, 500, 600, 900]]<|/det|>",
		ImageDims: ocr.Dims{W: 1000, H: 1000},
	}
}

func TestGenerateAllOutputs(t *testing.T) {
	out, err := New().Generate(context.Background(), &Request{
		Image:  pageJPEG(t, 1000, 1000),
		Result: testResult(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.Markdown, "# A Document") {
		t.Errorf("markdown missing title:\n%s", out.Markdown)
	}
	if !strings.Contains(out.Markdown, "Some body text.") {
		t.Errorf("markdown missing body:\n%s", out.Markdown)
	}
	if !strings.Contains(out.Markdown, "scan2doc-img:fig-002") {
		t.Errorf("markdown missing figure link:\n%s", out.Markdown)
	}
	if len(out.Figures) != 1 {
		t.Fatalf("figures = %d, want 1", len(out.Figures))
	}
	if !bytes.HasPrefix(out.Figures["fig-002"], []byte{0xFF, 0xD8}) {
		t.Error("sliced figure is not JPEG")
	}
	if !bytes.HasPrefix(out.Docx, []byte("PK")) {
		t.Error("docx output is not a zip package")
	}
	if !bytes.HasPrefix(out.PDF, []byte("%PDF-")) {
		t.Error("pdf output missing header")
	}
}

func TestGenerateMarkdownOnly(t *testing.T) {
	out, err := New().Generate(context.Background(), &Request{
		Image:    pageJPEG(t, 1000, 1000),
		Result:   testResult(),
		Markdown: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Markdown == "" {
		t.Error("markdown missing")
	}
	if out.Docx != nil || out.PDF != nil {
		t.Error("unrequested outputs were generated")
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Generate(ctx, &Request{
		Image:  pageJPEG(t, 100, 100),
		Result: testResult(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGenerateMissingRawText(t *testing.T) {
	_, err := New().Generate(context.Background(), &Request{
		Image:  pageJPEG(t, 100, 100),
		Result: &ocr.RawResult{ImageDims: ocr.Dims{W: 100, H: 100}},
	})
	if !errors.Is(err, ocr.ErrMissingRawText) {
		t.Fatalf("err = %v, want ErrMissingRawText", err)
	}
}

func TestUndecodablePageDegradesFigures(t *testing.T) {
	out, err := New().Generate(context.Background(), &Request{
		Image:    []byte("not an image"),
		Result:   testResult(),
		Markdown: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Figures) != 0 {
		t.Error("figures produced from undecodable page")
	}
	if out.Markdown == "" {
		t.Error("markdown should still be produced")
	}
}
