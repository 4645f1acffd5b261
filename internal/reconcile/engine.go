// Package reconcile merges the raw OCR stream and the layout-classified
// stream for a page into a single ordered, deduplicated canonical block
// list with zero text loss relative to the union of both inputs.
//
// The diff is set-based rather than a full sequence alignment: pages are
// short and both streams describe the same spatial layout, so text identity
// corroborated by bbox overlap is enough. The bbox check is what makes the
// set diff safe for legitimately repeated lines (running headers, page
// numbers) that a pure text-set difference would mishandle.
package reconcile

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/archivist-ml/collate/internal/adapters"
	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/geom"
	"github.com/archivist-ml/collate/internal/textnorm"
)

// Config carries the reconciliation thresholds. Passed by value; a batch
// sees one immutable snapshot.
type Config struct {
	// DedupOverlapFraction is the minimum bbox overlap (fraction of the
	// smaller box) for a raw fragment to count as already represented by a
	// classified block containing its text.
	DedupOverlapFraction float64
	// NearDupSimilarity is the minimum edit-distance similarity for two
	// normalized texts to count as the same text. OCR character misreads
	// must not defeat the dedup. Zero disables the fuzzy comparison and
	// only exact matches deduplicate.
	NearDupSimilarity float64
}

// nearDup reports whether two keys are the same text up to OCR-level
// character noise. Exact equality is the common case and skips the
// edit-distance work.
func (cfg Config) nearDup(a, b string) bool {
	if a == b {
		return true
	}
	if cfg.NearDupSimilarity <= 0 {
		return false
	}
	return levenshtein.Similarity(a, b, nil) >= cfg.NearDupSimilarity
}

// PageResult is the canonical outcome for one page.
type PageResult struct {
	Blocks []block.TextBlock
	// Partial is set when exactly one input stream was empty for the page.
	// Reconciliation proceeded with the remaining data.
	Partial bool
	// Recovered counts blocks present only in the raw stream.
	Recovered int
}

// Page reconciles one page's raw and classified streams. Both inputs must
// already be normalized by the adapters; records from other pages are the
// caller's bug, not filtered here.
func Page(documentID string, pageNo int, raw []adapters.RawRecord, classified []adapters.ClassifiedRecord, cfg Config) PageResult {
	res := PageResult{
		Partial: (len(raw) == 0) != (len(classified) == 0),
	}

	var entries []pageEntry

	// Classified blocks all survive, minus near-duplicates the classifier
	// occasionally emits for the same region.
	for _, c := range classified {
		key := textnorm.Key(c.Text)
		if isDuplicate(entries, key, c.BBox, c.NoBBox, cfg) {
			continue
		}
		entries = append(entries, pageEntry{
			key: key,
			blk: block.TextBlock{
				Text:                c.Text,
				BBox:                c.BBox,
				NoBBox:              c.NoBBox,
				PageNo:              pageNo,
				Source:              block.SourceClassified,
				PredictedLabel:      c.Label,
				PredictedConfidence: c.Confidence,
			},
		})
	}

	classifiedCount := len(entries)

	// Raw fragments: anything not already represented is recovered text the
	// classifier silently dropped.
	for _, r := range raw {
		key := textnorm.Key(r.Text)
		if represented(entries[:classifiedCount], key, r, cfg) {
			continue
		}
		// Repeated boilerplate: a fragment whose text duplicates an existing
		// block is only recovered when its bbox does not overlap any block
		// already on the page.
		if isDuplicate(entries, key, r.BBox, r.NoBBox, cfg) {
			continue
		}
		entries = append(entries, pageEntry{
			key: key,
			blk: block.TextBlock{
				Text:   r.Text,
				BBox:   r.BBox,
				NoBBox: r.NoBBox,
				PageNo: pageNo,
				Source: block.SourceRecovered,
			},
		})
		res.Recovered++
	}

	blocks := make([]block.TextBlock, len(entries))
	for i, e := range entries {
		blocks[i] = e.blk
	}
	block.SortReadingOrder(blocks)

	// Identities are positional within the sorted page, so identical inputs
	// always produce identical IDs.
	for i := range blocks {
		blocks[i].ID = block.NewID(documentID, pageNo, i, blocks[i].Text)
	}

	res.Blocks = blocks
	return res
}

// pageEntry pairs a block under construction with its case-folded text key.
type pageEntry struct {
	blk block.TextBlock
	key string
}

// represented reports whether a raw fragment is already covered by a
// classified block: its text is an exact substring of the block's text or a
// near-duplicate of it, corroborated by bbox overlap. Fragments or blocks
// without position data fall back to text identity alone, the only evidence
// available.
func represented(classified []pageEntry, key string, r adapters.RawRecord, cfg Config) bool {
	for _, e := range classified {
		if r.NoBBox || e.blk.NoBBox {
			if cfg.nearDup(e.key, key) {
				return true
			}
			continue
		}
		if !strings.Contains(e.key, key) && !cfg.nearDup(e.key, key) {
			continue
		}
		if geom.OverlapFraction(e.blk.BBox, r.BBox) >= cfg.DedupOverlapFraction {
			return true
		}
	}
	return false
}

// isDuplicate reports whether a block with near-duplicate normalized text
// and an overlapping bbox already exists. Position-less candidates duplicate
// on text alone.
func isDuplicate(entries []pageEntry, key string, bbox geom.Rect, noBBox bool, cfg Config) bool {
	for _, e := range entries {
		if !cfg.nearDup(e.key, key) {
			continue
		}
		if noBBox || e.blk.NoBBox {
			return true
		}
		if geom.Overlaps(e.blk.BBox, bbox) {
			return true
		}
	}
	return false
}
