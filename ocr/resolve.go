package ocr

import "github.com/wudi/scan2doc/geo"

// normalizedMax is the upper bound of the normalized coordinate scale the
// OCR model emits when it is not reporting raw pixels.
const normalizedMax = 1000

// defaultToleranceFrac is the per-axis matching tolerance as a fraction of
// the corresponding image dimension. One policy for both generation paths.
const defaultToleranceFrac = 0.05

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithToleranceFrac overrides the per-axis matching tolerance fraction.
func WithToleranceFrac(frac float64) ResolverOption {
	return func(r *Resolver) {
		if frac > 0 {
			r.tolFrac = frac
		}
	}
}

// Resolver maps approximate tag-stream coordinates onto the authoritative
// detection boxes for one page. Each authoritative box can be claimed once,
// so two blocks with coincidentally similar coordinates never land on the
// same region.
type Resolver struct {
	boxes   []Box
	claimed []bool
	dims    Dims
	tolFrac float64
}

// NewResolver builds a resolver over the page's authoritative boxes.
func NewResolver(boxes []Box, dims Dims, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		boxes:   boxes,
		claimed: make([]bool, len(boxes)),
		dims:    dims,
		tolFrac: defaultToleranceFrac,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the pixel rectangle for raw tag coordinates. It tries the
// coordinates as-is and rescaled from the 0–1000 grid against every
// unclaimed authoritative box in array order; the first match within
// tolerance is claimed. Without a match the coordinates are normalized
// directly when they look 0–1000 scaled, otherwise passed through.
func (r *Resolver) Resolve(raw geo.Rect) geo.Rect {
	candidates := []geo.Rect{raw}
	if scaled, ok := r.rescaled(raw); ok {
		candidates = append(candidates, scaled)
	}

	tolX := r.tolFrac * float64(r.dims.W)
	tolY := r.tolFrac * float64(r.dims.H)
	for i, box := range r.boxes {
		if r.claimed[i] {
			continue
		}
		for _, c := range candidates {
			if geo.NearXY(c, box.Rect, tolX, tolY) {
				r.claimed[i] = true
				return box.Rect
			}
		}
	}

	if scaled, ok := r.rescaled(raw); ok {
		return scaled
	}
	return raw
}

// rescaled maps raw 0–1000 coordinates to pixels. The normalized scale is
// inferred, never flagged: coordinates within the 0–1000 grid on an image
// larger than 1000px in some dimension are taken as normalized.
func (r *Resolver) rescaled(raw geo.Rect) (geo.Rect, bool) {
	maxCoord := raw.X1
	for _, v := range []float64{raw.Y1, raw.X2, raw.Y2} {
		if v > maxCoord {
			maxCoord = v
		}
	}
	if maxCoord > normalizedMax {
		return geo.Rect{}, false
	}
	if r.dims.W <= normalizedMax && r.dims.H <= normalizedMax {
		return geo.Rect{}, false
	}
	sx := float64(r.dims.W) / normalizedMax
	sy := float64(r.dims.H) / normalizedMax
	return geo.Rect{
		X1: raw.X1 * sx, Y1: raw.Y1 * sy,
		X2: raw.X2 * sx, Y2: raw.Y2 * sy,
	}, true
}

// ResolveBlocks resolves every parsed block against the authoritative boxes
// and prepares the list for layout analysis: gap-text blocks (zero Rect)
// inherit the extent of their preceding block so they stay in reading order,
// and blocks that still have no area afterwards are dropped.
func ResolveBlocks(blocks []Block, boxes []Box, dims Dims, opts ...ResolverOption) []Block {
	r := NewResolver(boxes, dims, opts...)

	resolved := make([]Block, 0, len(blocks))
	gaps := make([]bool, 0, len(blocks))
	for _, b := range blocks {
		if b.Rect == (geo.Rect{}) {
			// Gap text: no coordinates at all, placement inherited below.
			resolved = append(resolved, b)
			gaps = append(gaps, true)
			continue
		}
		b.Rect = r.Resolve(b.Rect).Canon()
		if b.Rect.Empty() {
			// Degenerate zero-area region, nothing to lay out.
			continue
		}
		resolved = append(resolved, b)
		gaps = append(gaps, false)
	}

	for i := range resolved {
		if gaps[i] {
			resolved[i].Rect = inheritRect(resolved, i, dims)
		}
	}

	out := resolved[:0]
	for _, b := range resolved {
		if b.Rect.Empty() {
			continue
		}
		out = append(out, b)
	}
	return out
}

// inheritRect picks a stand-in extent for a block without coordinates: the
// previous positioned block, else the next one, else the whole page.
func inheritRect(blocks []Block, i int, dims Dims) geo.Rect {
	for j := i - 1; j >= 0; j-- {
		if !blocks[j].Rect.Empty() {
			return blocks[j].Rect
		}
	}
	for j := i + 1; j < len(blocks); j++ {
		if !blocks[j].Rect.Empty() {
			return blocks[j].Rect
		}
	}
	return geo.Rect{X2: float64(dims.W), Y2: float64(dims.H)}
}
