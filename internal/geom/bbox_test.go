package geom

import (
	"math"
	"testing"
)

func TestFromPixels(t *testing.T) {
	r := FromPixels(100, 200, 300, 100, 1000, 2000)
	want := Rect{X1: 0.1, Y1: 0.1, X2: 0.4, Y2: 0.15}
	if r != want {
		t.Fatalf("FromPixels = %+v, want %+v", r, want)
	}
}

func TestFromPixelsClamps(t *testing.T) {
	r := FromPixels(900, 1900, 300, 300, 1000, 2000)
	if r.X2 != 1.0 || r.Y2 != 1.0 {
		t.Fatalf("out-of-page box not clamped: %+v", r)
	}
}

func TestFromPixelsZeroPage(t *testing.T) {
	if r := FromPixels(1, 2, 3, 4, 0, 0); !r.IsZero() {
		t.Fatalf("expected zero rect for zero page dims, got %+v", r)
	}
}

func TestOverlapFraction(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want float64
	}{
		{
			name: "disjoint",
			a:    Rect{0, 0, 0.2, 0.2},
			b:    Rect{0.5, 0.5, 0.7, 0.7},
			want: 0,
		},
		{
			name: "contained fragment scores 1.0",
			a:    Rect{0.1, 0.1, 0.2, 0.2},
			b:    Rect{0, 0, 1, 1},
			want: 1.0,
		},
		{
			name: "half overlap of smaller box",
			a:    Rect{0, 0, 0.2, 0.2},
			b:    Rect{0.1, 0, 0.5, 0.5},
			want: 0.5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := OverlapFraction(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("OverlapFraction = %v, want %v", got, tc.want)
			}
			// Symmetric by definition.
			if rev := OverlapFraction(tc.b, tc.a); math.Abs(rev-got) > 1e-9 {
				t.Fatalf("OverlapFraction not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := Rect{0, 0, 0.3, 0.3}
	if !Overlaps(a, Rect{0.2, 0.2, 0.5, 0.5}) {
		t.Fatal("expected overlap")
	}
	// Edge-touching rects share no area.
	if Overlaps(a, Rect{0.3, 0, 0.6, 0.3}) {
		t.Fatal("edge-touching rects should not overlap")
	}
}
