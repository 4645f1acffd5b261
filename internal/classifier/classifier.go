// Package classifier provides the fallback document-structure classifier
// used when a block has no qualifying ground-truth match: an interface, a
// label mapping from raw layout-model vocabularies into the canonical label
// set, an OpenAI-backed implementation, and a deterministic mock.
package classifier

import (
	"context"
	"errors"
	"strings"

	"github.com/archivist-ml/collate/internal/block"
)

// ErrUnavailable wraps any classifier failure. Callers treat it as "no
// prediction" and let the block fall through to unresolved; it is never
// fatal to a page or document.
var ErrUnavailable = errors.New("classifier unavailable")

// Prediction is a per-block classifier result.
type Prediction struct {
	Label      block.Label
	Confidence float64
}

// Classifier predicts a semantic label for a single canonical block.
// Implementations must honor ctx cancellation; calls carry a bounded
// timeout and a timeout is a page-level failure, not retried.
type Classifier interface {
	Classify(ctx context.Context, b block.TextBlock) (*Prediction, error)
}

// labelAliases maps layout-model label vocabularies (DocLayNet/PubLayNet
// style) onto the canonical label set.
var labelAliases = map[string]block.Label{
	"paragraph":      block.LabelBodyText,
	"text":           block.LabelBodyText,
	"body":           block.LabelBodyText,
	"body_text":      block.LabelBodyText,
	"list-item":      block.LabelBodyText,
	"footnote":       block.LabelFootnote,
	"heading":        block.LabelHeading,
	"section-header": block.LabelHeading,
	"section header": block.LabelHeading,
	"title":          block.LabelHeading,
	"front_matter":   block.LabelFrontMatter,
	"front matter":   block.LabelFrontMatter,
	"caption":        block.LabelCaption,
	"page-header":    block.LabelPageHeader,
	"page header":    block.LabelPageHeader,
	"page-footer":    block.LabelPageFooter,
	"page footer":    block.LabelPageFooter,
}

// MapLabel resolves a raw model label string to a canonical label.
func MapLabel(raw string) (block.Label, bool) {
	l, ok := labelAliases[strings.ToLower(strings.TrimSpace(raw))]
	return l, ok
}

// FromLayout converts a layout-stream prediction carried on a block into a
// Prediction, when the raw label maps into the canonical vocabulary.
func FromLayout(b block.TextBlock) *Prediction {
	if b.PredictedLabel == "" {
		return nil
	}
	label, ok := MapLabel(b.PredictedLabel)
	if !ok {
		return nil
	}
	return &Prediction{Label: label, Confidence: b.PredictedConfidence}
}
