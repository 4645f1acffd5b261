package pipeline

import (
	"errors"
	"fmt"
)

// ErrCorruptDocument marks a document whose inputs cannot be parsed or whose
// streams disagree on identity. The document is skipped; the batch continues.
var ErrCorruptDocument = errors.New("corrupt document")

// WarningKind enumerates the non-fatal conditions a document run can surface.
type WarningKind string

const (
	// WarnPartialPage: exactly one of the two input streams had content for
	// a page. The page was still processed from whichever stream was present.
	WarnPartialPage WarningKind = "partial_page"

	// WarnAmbiguousMatch: two reference spans tied at the best similarity
	// for a block. The lowest span index was kept.
	WarnAmbiguousMatch WarningKind = "ambiguous_match"

	// WarnClassifierUnavailable: the fallback classifier errored or timed
	// out for a block. The block fell through to the unresolved tier.
	WarnClassifierUnavailable WarningKind = "classifier_unavailable"

	// WarnTierAlarm: the unresolved fraction for the document breached the
	// configured alarm threshold.
	WarnTierAlarm WarningKind = "tier3_alarm"
)

// Warning is a non-fatal per-document finding. PageNo and BlockID are zero
// values when the warning is document-scoped.
type Warning struct {
	Kind    WarningKind
	PageNo  int
	BlockID string
	Detail  string
}

func (w Warning) String() string {
	if w.PageNo > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Kind, w.PageNo, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}
