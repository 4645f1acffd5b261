package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/geom"
)

func TestMapLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want block.Label
		ok   bool
	}{
		{"Paragraph", block.LabelBodyText, true},
		{"paragraph", block.LabelBodyText, true},
		{"Section header", block.LabelHeading, true},
		{"Page header", block.LabelPageHeader, true},
		{"  Footnote ", block.LabelFootnote, true},
		{"Table", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := MapLabel(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("MapLabel(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFromLayout(t *testing.T) {
	b := block.TextBlock{PredictedLabel: "Paragraph", PredictedConfidence: 0.95}
	pred := FromLayout(b)
	if pred == nil || pred.Label != block.LabelBodyText || pred.Confidence != 0.95 {
		t.Fatalf("FromLayout = %+v", pred)
	}

	if FromLayout(block.TextBlock{}) != nil {
		t.Fatal("no prediction expected for unlabeled block")
	}
	if FromLayout(block.TextBlock{PredictedLabel: "Table", PredictedConfidence: 0.9}) != nil {
		t.Fatal("unmappable label should yield no prediction")
	}
}

func TestMockPositional(t *testing.T) {
	m := &Mock{}
	ctx := context.Background()

	header, err := m.Classify(ctx, block.TextBlock{
		Text: "Journal of Law", BBox: geom.Rect{X1: 0.1, Y1: 0.02, X2: 0.9, Y2: 0.06},
	})
	if err != nil || header.Label != block.LabelPageHeader {
		t.Fatalf("header: %+v, %v", header, err)
	}

	footer, err := m.Classify(ctx, block.TextBlock{
		Text: "24", BBox: geom.Rect{X1: 0.45, Y1: 0.93, X2: 0.55, Y2: 0.97},
	})
	if err != nil || footer.Label != block.LabelPageFooter {
		t.Fatalf("footer: %+v, %v", footer, err)
	}

	fn, err := m.Classify(ctx, block.TextBlock{
		Text: "12. See Smith v. Jones.", BBox: geom.Rect{X1: 0.1, Y1: 0.7, X2: 0.9, Y2: 0.75},
	})
	if err != nil || fn.Label != block.LabelFootnote {
		t.Fatalf("footnote: %+v, %v", fn, err)
	}
}

func TestMockUnavailable(t *testing.T) {
	m := &Mock{Unavailable: true}
	_, err := m.Classify(context.Background(), block.TextBlock{Text: "x"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMockDeterministic(t *testing.T) {
	m := &Mock{}
	b := block.TextBlock{Text: "The court held that X.", BBox: geom.Rect{X1: 0.1, Y1: 0.4, X2: 0.9, Y2: 0.5}}
	a1, _ := m.Classify(context.Background(), b)
	a2, _ := m.Classify(context.Background(), b)
	if *a1 != *a2 {
		t.Fatalf("mock not deterministic: %+v vs %+v", a1, a2)
	}
}
