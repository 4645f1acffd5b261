// Package match aligns canonical blocks against ground-truth reference
// spans using edit-distance similarity over a moving locality window.
//
// The locality assumption: document order in the PDF roughly tracks document
// order in the reference, so most blocks match near the last matched span.
// The window expands only when nothing clears the floor similarity, and one
// full-reference scan per document handles multi-column reordering without
// paying O(n*m) on every block.
package match

import (
	"log/slog"

	"github.com/agext/levenshtein"

	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/textnorm"
)

// Config carries the matcher thresholds. Passed by value per document.
type Config struct {
	WindowStart     int     // initial window size in spans
	WindowMax       int     // expansion cap
	FloorSimilarity float64 // below this a candidate is not worth keeping
	AcceptThreshold float64 // inclusive bound that advances the window
	MaxConcatSpans  int     // adjacent spans tried per starting index
}

// Matcher holds per-document matching state. It must see blocks in document
// order; the moving window is what keeps matching cheap. One Matcher per
// document, never shared.
type Matcher struct {
	cfg    Config
	logger *slog.Logger

	spans []block.ReferenceSpan
	keys  []string // case-folded span texts, index-aligned with spans

	lastMatched int  // span index consumed by the last accepted match
	widened     bool // full-reference scan already spent
}

// New creates a matcher over a document's reference spans. A nil logger
// disables tie logging.
func New(spans []block.ReferenceSpan, cfg Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	keys := make([]string, len(spans))
	for i, s := range spans {
		keys[i] = textnorm.Key(s.Text)
	}
	return &Matcher{
		cfg:         cfg,
		logger:      logger,
		spans:       spans,
		keys:        keys,
		lastMatched: -1,
	}
}

// Match returns the best candidate for a block, or nil when nothing clears
// the floor similarity. Candidates at or above the accept threshold advance
// the locality window. Ties at the best similarity resolve to the lowest
// span index, deterministically, and are logged.
func (m *Matcher) Match(b block.TextBlock) *block.MatchCandidate {
	if len(m.spans) == 0 {
		return nil
	}

	key := textnorm.Key(b.Text)

	var best *block.MatchCandidate
	for w := m.cfg.WindowStart; ; w *= 2 {
		if w > m.cfg.WindowMax {
			w = m.cfg.WindowMax
		}
		best = m.scan(key, m.windowBounds(w), w)
		if best != nil && best.Similarity >= m.cfg.FloorSimilarity {
			break
		}
		if w >= m.cfg.WindowMax {
			break
		}
	}

	// One full-reference scan per document before giving up on a block.
	if (best == nil || best.Similarity < m.cfg.FloorSimilarity) && !m.widened {
		m.widened = true
		if wide := m.scan(key, bounds{0, len(m.spans)}, len(m.spans)); wide != nil &&
			(best == nil || wide.Similarity > best.Similarity) {
			best = wide
		}
	}

	if best == nil || best.Similarity < m.cfg.FloorSimilarity {
		return nil
	}

	best.BlockID = b.ID
	if best.Similarity >= m.cfg.AcceptThreshold {
		m.lastMatched = best.SpanIndex + best.SpanCount - 1
	}
	return best
}

type bounds struct{ lo, hi int }

// windowBounds centers a window of size w on the span after the last
// accepted match, with one span of slack behind for slight reordering.
func (m *Matcher) windowBounds(w int) bounds {
	center := m.lastMatched + 1
	lo := center - 1
	if lo < 0 {
		lo = 0
	}
	hi := center + w
	if hi > len(m.spans) {
		hi = len(m.spans)
	}
	return bounds{lo, hi}
}

// scan scores the block text against every span in [lo,hi), trying the
// single span first and then 2..MaxConcatSpans concatenations (PDF paragraph
// segmentation differs from HTML segmentation). Higher similarity wins;
// equal similarity keeps the earlier span index, then the shorter
// concatenation.
func (m *Matcher) scan(key string, bd bounds, windowSize int) *block.MatchCandidate {
	var best *block.MatchCandidate
	tied := false

	for i := bd.lo; i < bd.hi; i++ {
		concat := m.keys[i]
		for n := 1; n <= m.cfg.MaxConcatSpans && i+n <= len(m.spans); n++ {
			if n > 1 {
				concat = concat + " " + m.keys[i+n-1]
			}
			sim := levenshtein.Similarity(key, concat, nil)
			switch {
			case best == nil || sim > best.Similarity:
				best = &block.MatchCandidate{
					SpanIndex:   i,
					SpanCount:   n,
					Similarity:  sim,
					WindowSize:  windowSize,
					SectionType: m.spans[i].SectionType,
				}
				tied = false
			case sim == best.Similarity && i != best.SpanIndex:
				tied = true
			}
		}
	}

	if best != nil && tied {
		best.Tied = true
		m.logger.Debug("ambiguous match, keeping lowest span index",
			"span_index", best.SpanIndex,
			"similarity", best.Similarity)
	}
	return best
}

// Remaining reports how much of the reference is past the moving window,
// a cheap health signal for badly diverged documents.
func (m *Matcher) Remaining() int {
	rem := len(m.spans) - (m.lastMatched + 1)
	if rem < 0 {
		return 0
	}
	return rem
}

