// Package block defines the core data model shared by the reconciliation,
// matching, and resolution stages: canonical text blocks, semantic labels,
// label provenance tiers, and ground-truth reference spans.
package block

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/archivist-ml/collate/internal/geom"
)

// Source records which input stream a canonical block came from.
type Source string

const (
	SourceClassified Source = "classified" // present in the layout-classified stream
	SourceRecovered  Source = "recovered"  // present only in the raw OCR stream
)

// Label is the semantic label vocabulary for canonical blocks.
type Label string

const (
	LabelBodyText    Label = "body_text"
	LabelFootnote    Label = "footnote"
	LabelHeading     Label = "heading"
	LabelFrontMatter Label = "front_matter"
	LabelCaption     Label = "caption"
	LabelPageHeader  Label = "page_header"
	LabelPageFooter  Label = "page_footer"
	LabelUnresolved  Label = "unresolved"
)

// Tier is the provenance category of a block's final label.
type Tier string

const (
	TierGroundTruth Tier = "ground_truth_match"
	TierClassifier  Tier = "classifier_prediction"
	TierUnresolved  Tier = "unresolved"
)

// ValidLabel reports whether l is a member of the label vocabulary.
func ValidLabel(l Label) bool {
	switch l {
	case LabelBodyText, LabelFootnote, LabelHeading, LabelFrontMatter,
		LabelCaption, LabelPageHeader, LabelPageFooter, LabelUnresolved:
		return true
	}
	return false
}

// TextBlock is the atomic unit after reconciliation. Text is stored in its
// canonical normalized form (see textnorm). Label fields stay empty until
// the resolver runs; resolution annotates, it never rewrites text or bbox.
type TextBlock struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	BBox   geom.Rect `json:"bbox"`
	PageNo int       `json:"page_no"`
	Source Source    `json:"source"`

	// Set by the reconciliation engine when the classified stream carried a
	// raw model prediction for this block. Not part of the label vocabulary;
	// the resolver maps it through the classifier label mapping.
	PredictedLabel      string  `json:"predicted_label,omitempty"`
	PredictedConfidence float64 `json:"predicted_confidence,omitempty"`

	// Missing bbox data: the block is ordered after all positioned blocks on
	// its page (explicit fallback, never dropped).
	NoBBox bool `json:"no_bbox,omitempty"`

	Label      Label   `json:"label,omitempty"`
	Tier       Tier    `json:"label_tier,omitempty"`
	Confidence float64 `json:"confidence"`
}

// blockNamespace is the UUIDv5 namespace for block identities. Hash-derived
// IDs keep the pipeline deterministic: identical inputs produce identical
// block IDs, which the restartability guarantee depends on.
var blockNamespace = uuid.MustParse("7d2f9e6a-31c4-4b8a-9f0e-5a86b1c2d305")

// NewID derives the deterministic block identity from document, page,
// within-page position, and canonical text.
func NewID(documentID string, pageNo, pos int, text string) string {
	return uuid.NewSHA1(blockNamespace, []byte(fmt.Sprintf("%s/%d/%d/%s", documentID, pageNo, pos, text))).String()
}

// SortReadingOrder orders blocks by reading position within a page:
// ascending y1, tie-break ascending x1. Blocks without bbox data sort after
// all positioned blocks, keeping their relative input order. The sort is
// stable so equal keys preserve insertion order.
func SortReadingOrder(blocks []TextBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.NoBBox != b.NoBBox {
			return !a.NoBBox
		}
		if a.NoBBox {
			return false
		}
		if a.BBox.Y1 != b.BBox.Y1 {
			return a.BBox.Y1 < b.BBox.Y1
		}
		return a.BBox.X1 < b.BBox.X1
	})
}

// ReferenceSpan is one ordered span of the optional ground-truth source.
// Immutable for the document's lifetime.
type ReferenceSpan struct {
	Text        string `json:"text"`
	SectionType Label  `json:"section_type"` // body_text or footnote
	OrderIndex  int    `json:"order_index"`
}

// MatchCandidate is the ephemeral result of matching one block against the
// reference. SpanCount > 1 means the block matched a concatenation of
// adjacent spans starting at SpanIndex.
type MatchCandidate struct {
	BlockID     string
	SpanIndex   int
	SpanCount   int
	Similarity  float64
	WindowSize  int
	SectionType Label
	// Tied records that another span scored the same best similarity; the
	// lowest span index was kept, deterministically.
	Tied bool
}
