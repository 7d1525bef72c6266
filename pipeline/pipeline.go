// Package pipeline orchestrates one page's conversion: parse the tagged OCR
// output, resolve boxes, slice figures, reconstruct layout, then fan out to
// the Markdown, OOXML and sandwich PDF outputs. Stages run strictly in
// order; cancellation is honored at stage boundaries only, so each output
// is either complete or absent.
package pipeline

import (
	"context"
	"fmt"

	"github.com/wudi/scan2doc/docx"
	"github.com/wudi/scan2doc/layout"
	"github.com/wudi/scan2doc/markdown"
	"github.com/wudi/scan2doc/observability"
	"github.com/wudi/scan2doc/ocr"
	"github.com/wudi/scan2doc/sandwich"
)

// Request is one page to convert.
type Request struct {
	// Image is the scanned page (JPEG or PNG).
	Image []byte
	// Result is the OCR server response for the page.
	Result *ocr.RawResult

	// Output selection. All false means everything.
	Markdown bool
	Docx     bool
	PDF      bool
}

func (r *Request) wants() (md, dx, pdf bool) {
	if !r.Markdown && !r.Docx && !r.PDF {
		return true, true, true
	}
	// Both document formats are rendered from the Markdown.
	return true, r.Docx, r.PDF
}

// Outputs carries the generated artifacts. Fields for formats that were not
// requested stay zero.
type Outputs struct {
	Markdown string
	Docx     []byte
	PDF      []byte
	// Figures maps asset IDs referenced from the Markdown to their image
	// bytes.
	Figures map[string][]byte
}

// Generator converts pages. All state is per-request; a single Generator
// serves concurrent callers.
type Generator struct {
	analyzer *layout.Analyzer
	sandwich *sandwich.Builder
	docxOpts []docx.Option
	logger   observability.Logger
	tracer   observability.Tracer
}

// Option configures a Generator.
type Option func(*Generator)

// WithAnalyzer replaces the layout analyzer.
func WithAnalyzer(a *layout.Analyzer) Option {
	return func(g *Generator) { g.analyzer = a }
}

// WithSandwichBuilder replaces the sandwich PDF builder.
func WithSandwichBuilder(b *sandwich.Builder) Option {
	return func(g *Generator) { g.sandwich = b }
}

// WithDocxOptions forwards options to document synthesis.
func WithDocxOptions(opts ...docx.Option) Option {
	return func(g *Generator) { g.docxOpts = append(g.docxOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t observability.Tracer) Option {
	return func(g *Generator) { g.tracer = t }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		analyzer: layout.New(),
		sandwich: sandwich.New(),
		logger:   observability.NopLogger{},
		tracer:   observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate converts one page.
func (g *Generator) Generate(ctx context.Context, req *Request) (*Outputs, error) {
	ctx, span := g.tracer.StartSpan(ctx, "scan2doc.generate")
	defer span.Finish()

	_, wantDocx, wantPDF := req.wants()

	blocks, err := ocr.Parse(req.Result.RawText)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	blocks = ocr.ResolveBlocks(blocks, req.Result.Boxes, req.Result.ImageDims)
	g.logger.Debug("page parsed", observability.Int("blocks", len(blocks)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, figures := g.sliceFigures(req.Image, blocks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := g.analyzer.Analyze(blocks)
	md := markdown.Assemble(rows, float64(req.Result.ImageDims.W), ids)
	out := &Outputs{Markdown: md, Figures: figures}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if wantDocx {
		opts := append([]docx.Option{docx.WithLogger(g.logger)}, g.docxOpts...)
		doc, err := docx.Synthesize(md, figures, opts...)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("pipeline: synthesize docx: %w", err)
		}
		out.Docx = doc
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if wantPDF {
		pdfBytes, err := g.sandwich.Build(ctx, req.Result, req.Image)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("pipeline: build sandwich: %w", err)
		}
		out.PDF = pdfBytes
	}
	return out, nil
}
