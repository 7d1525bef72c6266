package ocr

import (
	"errors"
	"testing"

	"github.com/wudi/scan2doc/geo"
)

func TestParseSingleMarker(t *testing.T) {
	raw := `<|ref|>text<|/ref|><|det|>[[12, 34, 560, 78]]<|/det|>Hello world`
	blocks, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	b := blocks[0]
	if b.Type != BlockText || b.Content != "Hello world" {
		t.Errorf("block = %+v", b)
	}
	want := geo.Rect{X1: 12, Y1: 34, X2: 560, Y2: 78}
	if b.Rect != want {
		t.Errorf("rect = %+v, want %+v", b.Rect, want)
	}
}

func TestParseGapText(t *testing.T) {
	raw := "before\n" +
		`<|ref|>title<|/ref|><|det|>[[0,0,500,40]]<|/det|>Heading` + "\n" +
		"between\n" +
		`<|ref|>text<|/ref|><|det|>[[0,60,500,100]]<|/det|>Body` + "\n" +
		"after"
	blocks, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// Gap text is preserved; "between" and "after" trail the marker content
	// of the preceding block, "before" leads.
	var contents []string
	for _, b := range blocks {
		contents = append(contents, b.Content)
	}
	wantOrder := []string{"before", "Heading\nbetween", "Body\nafter"}
	if len(blocks) != len(wantOrder) {
		t.Fatalf("blocks = %q, want %q", contents, wantOrder)
	}
	for i, want := range wantOrder {
		if contents[i] != want {
			t.Errorf("block %d content = %q, want %q", i, contents[i], want)
		}
	}
	if !blocks[0].Rect.Empty() {
		t.Error("leading gap block should carry no coordinates")
	}
}

func TestParseNoMarkers(t *testing.T) {
	blocks, err := Parse("just plain recognized text")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Content != "just plain recognized text" {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestParseMissingRawText(t *testing.T) {
	if _, err := Parse("   \n\t"); !errors.Is(err, ErrMissingRawText) {
		t.Fatalf("err = %v, want ErrMissingRawText", err)
	}
}

func TestParseMalformedCoordinates(t *testing.T) {
	raw := `<|ref|>text<|/ref|><|det|>[[1,2,3]]<|/det|>kept anyway`
	blocks, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Content != "kept anyway" {
		t.Fatalf("blocks = %+v", blocks)
	}
	if !blocks[0].Rect.Empty() {
		t.Error("malformed coordinates must not produce a positioned block")
	}
}

func TestParseNormalizesMathDelimiters(t *testing.T) {
	raw := `<|ref|>text<|/ref|><|det|>[[0,0,10,10]]<|/det|>\(a+b\) and \[c\]`
	blocks, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := blocks[0].Content, "$a+b$ and $$c$$"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}
