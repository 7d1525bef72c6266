// Package geo provides the pixel-rectangle arithmetic shared by box
// resolution and page layout analysis. Rectangles use image coordinates:
// origin at the top-left corner, Y growing downward.
package geo

import "math"

// Rect is an axis-aligned rectangle [X1,Y1,X2,Y2] in page pixels.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// FromSlice builds a Rect from a 4-element coordinate slice.
// ok is false if the slice does not hold exactly four values.
func FromSlice(v []float64) (Rect, bool) {
	if len(v) != 4 {
		return Rect{}, false
	}
	return Rect{v[0], v[1], v[2], v[3]}, true
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// CenterX returns the horizontal center of r.
func (r Rect) CenterX() float64 { return (r.X1 + r.X2) / 2 }

// CenterY returns the vertical center of r.
func (r Rect) CenterY() float64 { return (r.Y1 + r.Y2) / 2 }

// Empty reports whether r has non-positive width or height.
func (r Rect) Empty() bool { return r.X2 <= r.X1 || r.Y2 <= r.Y1 }

// Canon returns r with swapped edges fixed so X1<=X2 and Y1<=Y2.
func (r Rect) Canon() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// Scale returns r with every coordinate multiplied by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{r.X1 * f, r.Y1 * f, r.X2 * f, r.Y2 * f}
}

// HOverlap returns the length of the horizontal interval shared by a and b.
// Zero means the intervals touch at most at a point.
func HOverlap(a, b Rect) float64 {
	o := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	if o < 0 {
		return 0
	}
	return o
}

// VOverlap returns the length of the vertical interval shared by a and b.
func VOverlap(a, b Rect) float64 {
	o := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if o < 0 {
		return 0
	}
	return o
}

// Union returns the smallest rectangle covering both a and b.
func Union(a, b Rect) Rect {
	return Rect{
		X1: math.Min(a.X1, b.X1),
		Y1: math.Min(a.Y1, b.Y1),
		X2: math.Max(a.X2, b.X2),
		Y2: math.Max(a.Y2, b.Y2),
	}
}

// Near reports whether a and b match within tol on every edge.
func Near(a, b Rect, tol float64) bool {
	return math.Abs(a.X1-b.X1) <= tol &&
		math.Abs(a.Y1-b.Y1) <= tol &&
		math.Abs(a.X2-b.X2) <= tol &&
		math.Abs(a.Y2-b.Y2) <= tol
}

// NearXY reports whether a and b match within separate horizontal and
// vertical tolerances, one per axis.
func NearXY(a, b Rect, tolX, tolY float64) bool {
	return math.Abs(a.X1-b.X1) <= tolX &&
		math.Abs(a.X2-b.X2) <= tolX &&
		math.Abs(a.Y1-b.Y1) <= tolY &&
		math.Abs(a.Y2-b.Y2) <= tolY
}
