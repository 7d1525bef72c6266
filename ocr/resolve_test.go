package ocr

import (
	"testing"

	"github.com/wudi/scan2doc/geo"
)

func TestResolveClaimsAuthoritativeBox(t *testing.T) {
	boxes := []Box{
		{Label: "text", Rect: geo.Rect{X1: 100, Y1: 200, X2: 900, Y2: 400}},
		{Label: "text", Rect: geo.Rect{X1: 120, Y1: 210, X2: 880, Y2: 390}},
	}
	dims := Dims{W: 2000, H: 2800}
	r := NewResolver(boxes, dims)

	got := r.Resolve(geo.Rect{X1: 110, Y1: 205, X2: 890, Y2: 395})
	if got != boxes[0].Rect {
		t.Fatalf("first resolve = %+v, want first box", got)
	}
	// The first box is claimed; a near-identical request gets the second.
	got = r.Resolve(geo.Rect{X1: 110, Y1: 205, X2: 890, Y2: 395})
	if got != boxes[1].Rect {
		t.Fatalf("second resolve = %+v, want second box", got)
	}
}

func TestResolveMatchesRescaledCandidate(t *testing.T) {
	// Authoritative box in pixels; tag coordinates on the 0–1000 grid.
	boxes := []Box{{Label: "text", Rect: geo.Rect{X1: 200, Y1: 280, X2: 1800, Y2: 560}}}
	dims := Dims{W: 2000, H: 2800}
	r := NewResolver(boxes, dims)

	got := r.Resolve(geo.Rect{X1: 100, Y1: 100, X2: 900, Y2: 200})
	if got != boxes[0].Rect {
		t.Fatalf("resolve = %+v, want authoritative box", got)
	}
}

func TestResolveFallbackNormalization(t *testing.T) {
	dims := Dims{W: 2000, H: 1000}
	r := NewResolver(nil, dims)

	got := r.Resolve(geo.Rect{X1: 100, Y1: 100, X2: 500, Y2: 200})
	want := geo.Rect{X1: 200, Y1: 100, X2: 1000, Y2: 200}
	if got != want {
		t.Fatalf("normalized = %+v, want %+v", got, want)
	}

	// Pixel-sized coordinates on a small image pass through unchanged.
	small := NewResolver(nil, Dims{W: 800, H: 600})
	passthrough := geo.Rect{X1: 10, Y1: 10, X2: 790, Y2: 590}
	if got := small.Resolve(passthrough); got != passthrough {
		t.Fatalf("passthrough = %+v", got)
	}
}

func TestResolveBlocksDropsEmptyAndInherits(t *testing.T) {
	dims := Dims{W: 1000, H: 1000}
	blocks := []Block{
		{Type: BlockText, Content: "positioned", Rect: geo.Rect{X1: 10, Y1: 10, X2: 500, Y2: 100}},
		{Type: BlockText, Content: "gap text"}, // no coordinates
		{Type: BlockText, Content: "degenerate", Rect: geo.Rect{X1: 50, Y1: 200, X2: 50, Y2: 200}},
	}
	out := ResolveBlocks(blocks, nil, dims)
	if len(out) != 2 {
		t.Fatalf("got %d blocks, want 2 (degenerate dropped): %+v", len(out), out)
	}
	if out[1].Content != "gap text" {
		t.Fatalf("gap block missing: %+v", out)
	}
	if out[1].Rect != out[0].Rect {
		t.Errorf("gap block should inherit the previous extent, got %+v", out[1].Rect)
	}
}
