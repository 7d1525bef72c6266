package markdown

import (
	"strings"
	"testing"

	"github.com/wudi/scan2doc/geo"
	"github.com/wudi/scan2doc/layout"
	"github.com/wudi/scan2doc/ocr"
)

func analyze(blocks []ocr.Block) []layout.Row {
	return layout.New().Analyze(blocks)
}

func TestAssemblePlainParagraphs(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockTitle, Content: "A Title", Rect: geo.Rect{X1: 0, Y1: 0, X2: 900, Y2: 50}},
		{Seq: 1, Type: ocr.BlockText, Content: "Body text.", Rect: geo.Rect{X1: 0, Y1: 100, X2: 900, Y2: 200}},
	})
	got := Assemble(rows, 1000, nil)
	want := "# A Title\n\nBody text."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAssembleNoDoubledHeadingMarker(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockTitle, Content: "# Premarked Title", Rect: geo.Rect{X1: 0, Y1: 0, X2: 900, Y2: 50}},
		{Seq: 1, Type: ocr.BlockSubTitle, Content: "Plain Subtitle", Rect: geo.Rect{X1: 0, Y1: 100, X2: 900, Y2: 150}},
	})
	got := Assemble(rows, 1000, nil)
	want := "# Premarked Title\n\n## Plain Subtitle"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAssembleTwoColumnTable(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockText, Content: "Left", Rect: geo.Rect{X1: 0, Y1: 0, X2: 400, Y2: 100}},
		{Seq: 1, Type: ocr.BlockImage, Rect: geo.Rect{X1: 500, Y1: 0, X2: 900, Y2: 100}},
	})
	got := Assemble(rows, 1000, map[int]string{1: "abc123"})

	if !strings.Contains(got, `<table class="layout-table">`) {
		t.Fatalf("missing layout table marker:\n%s", got)
	}
	if !strings.Contains(got, `<td width="50%">Left</td>`) {
		t.Errorf("left cell wrong:\n%s", got)
	}
	if !strings.Contains(got, `<img src="scan2doc-img:abc123" alt="Figure 1">`) {
		t.Errorf("image cell wrong:\n%s", got)
	}
	if strings.Count(got, `width="50%"`) != 2 {
		t.Errorf("expected two 50%% columns:\n%s", got)
	}
}

func TestAssembleStandaloneFigure(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockImage, Content: "Fig. 1: A diagram", Rect: geo.Rect{X1: 100, Y1: 0, X2: 800, Y2: 400}},
	})
	got := Assemble(rows, 1000, map[int]string{0: "img-0"})
	if !strings.Contains(got, "![Figure 1](scan2doc-img:img-0)") {
		t.Errorf("missing figure reference:\n%s", got)
	}
	if !strings.Contains(got, "Fig. 1: A diagram") {
		t.Errorf("missing caption text:\n%s", got)
	}
}

func TestAssembleImageWithoutAssetKeepsCaption(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockImage, Content: "caption only", Rect: geo.Rect{X1: 0, Y1: 0, X2: 900, Y2: 300}},
	})
	got := Assemble(rows, 1000, nil)
	if got != "caption only" {
		t.Fatalf("got %q, want caption text alone", got)
	}
}

func TestAssembleOrphanedImages(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockImage, Rect: geo.Rect{X1: 0, Y1: 0, X2: 900, Y2: 300}},
	})
	// Seq 5 exists as an asset but no block references it.
	got := Assemble(rows, 1000, map[int]string{0: "a", 5: "b"})

	if !strings.Contains(got, "![Figure 1](scan2doc-img:a)") {
		t.Errorf("placed figure wrong:\n%s", got)
	}
	if !strings.Contains(got, "## Figures") {
		t.Fatalf("missing orphan section:\n%s", got)
	}
	if !strings.Contains(got, "![Figure 2](scan2doc-img:b)") {
		t.Errorf("orphan should continue numbering:\n%s", got)
	}
}

func TestAssembleGapTextSurvivesVerbatim(t *testing.T) {
	const gap = "Text with  odd   spacing and *markers*"
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockText, Content: gap, Rect: geo.Rect{X1: 0, Y1: 0, X2: 900, Y2: 50}},
	})
	got := Assemble(rows, 1000, nil)
	if !strings.Contains(got, gap) {
		t.Fatalf("gap text altered: %q", got)
	}
}

func TestAssembleCellNewlinesBecomeBreaks(t *testing.T) {
	rows := analyze([]ocr.Block{
		{Seq: 0, Type: ocr.BlockText, Content: "line one\nline two", Rect: geo.Rect{X1: 0, Y1: 0, X2: 300, Y2: 100}},
		{Seq: 1, Type: ocr.BlockText, Content: "right", Rect: geo.Rect{X1: 600, Y1: 0, X2: 900, Y2: 100}},
	})
	got := Assemble(rows, 1000, nil)
	if !strings.Contains(got, "line one<br/>line two") {
		t.Errorf("newline not converted inside cell:\n%s", got)
	}
}
