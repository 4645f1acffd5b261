// Package geom provides page-relative bounding box math for text fragments.
// All coordinates are normalized to [0,1] relative to page dimensions, with
// the origin at the top-left corner and y increasing downward.
package geom

// Rect is a normalized bounding box (x1,y1) top-left, (x2,y2) bottom-right.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// FromPixels converts a pixel-space (x, y, w, h) box into a normalized Rect
// using the page's pixel dimensions. Results are clamped to [0,1] so that
// slightly out-of-page OCR boxes don't produce invalid coordinates.
func FromPixels(x, y, w, h, pageW, pageH float64) Rect {
	if pageW <= 0 || pageH <= 0 {
		return Rect{}
	}
	return Rect{
		X1: clamp01(x / pageW),
		Y1: clamp01(y / pageH),
		X2: clamp01((x + w) / pageW),
		Y2: clamp01((y + h) / pageH),
	}
}

// IsZero reports whether the rect carries no position data.
func (r Rect) IsZero() bool {
	return r.X1 == 0 && r.Y1 == 0 && r.X2 == 0 && r.Y2 == 0
}

// Area returns the rect's area. Degenerate rects have zero area.
func (r Rect) Area() float64 {
	w := r.X2 - r.X1
	h := r.Y2 - r.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersect returns the intersection of two rects. The zero Rect is returned
// when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X1, o.X1)
	y1 := max(r.Y1, o.Y1)
	x2 := min(r.X2, o.X2)
	y2 := min(r.Y2, o.Y2)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// OverlapFraction returns the intersection area divided by the smaller rect's
// area, in [0,1]. Using the smaller area makes the measure symmetric for the
// "fragment contained in a larger block" case: a small OCR fragment fully
// inside a large classified block scores 1.0.
func OverlapFraction(a, b Rect) float64 {
	smaller := min(a.Area(), b.Area())
	if smaller == 0 {
		return 0
	}
	return a.Intersect(b).Area() / smaller
}

// Overlaps reports whether two rects share any area at all.
func Overlaps(a, b Rect) bool {
	return a.Intersect(b).Area() > 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
