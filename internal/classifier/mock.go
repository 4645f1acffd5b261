package classifier

import (
	"context"
	"strings"

	"github.com/archivist-ml/collate/internal/block"
)

// Mock is a deterministic heuristic classifier for tests and offline runs.
// Position drives header/footer detection, simple text shape drives the
// rest. Same block in, same prediction out.
type Mock struct {
	// Unavailable makes every call fail with ErrUnavailable, for testing
	// the fall-through-to-unresolved path.
	Unavailable bool
	// Fixed, when set, is returned for every block.
	Fixed *Prediction
}

// Classify implements Classifier.
func (m *Mock) Classify(ctx context.Context, b block.TextBlock) (*Prediction, error) {
	if m.Unavailable {
		return nil, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Fixed != nil {
		return m.Fixed, nil
	}

	switch {
	case !b.NoBBox && b.BBox.Y2 <= 0.12:
		return &Prediction{Label: block.LabelPageHeader, Confidence: 0.90}, nil
	case !b.NoBBox && b.BBox.Y1 >= 0.88:
		return &Prediction{Label: block.LabelPageFooter, Confidence: 0.90}, nil
	case looksLikeFootnote(b.Text):
		return &Prediction{Label: block.LabelFootnote, Confidence: 0.85}, nil
	case len(b.Text) < 60 && b.Text == strings.ToUpper(b.Text):
		return &Prediction{Label: block.LabelHeading, Confidence: 0.82}, nil
	case len(b.Text) < 40:
		// Short fragments are genuinely ambiguous; stay below the Tier 2
		// threshold so they resolve unresolved.
		return &Prediction{Label: block.LabelBodyText, Confidence: 0.55}, nil
	default:
		return &Prediction{Label: block.LabelBodyText, Confidence: 0.88}, nil
	}
}

func looksLikeFootnote(text string) bool {
	if len(text) < 3 {
		return false
	}
	if text[0] < '0' || text[0] > '9' {
		return false
	}
	rest := strings.TrimLeft(text, "0123456789")
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, " ")
}

var _ Classifier = (*Mock)(nil)
