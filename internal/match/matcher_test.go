package match

import (
	"fmt"
	"testing"

	"github.com/archivist-ml/collate/internal/block"
)

func testCfg() Config {
	return Config{
		WindowStart:     3,
		WindowMax:       10,
		FloorSimilarity: 0.5,
		AcceptThreshold: 0.80,
		MaxConcatSpans:  3,
	}
}

func spansOf(texts ...string) []block.ReferenceSpan {
	spans := make([]block.ReferenceSpan, len(texts))
	for i, t := range texts {
		spans[i] = block.ReferenceSpan{Text: t, SectionType: block.LabelBodyText, OrderIndex: i}
	}
	return spans
}

func blk(id, text string) block.TextBlock {
	return block.TextBlock{ID: id, Text: text}
}

func TestMatchExactText(t *testing.T) {
	m := New(spansOf("The court held that X.", "A second paragraph."), testCfg(), nil)

	cand := m.Match(blk("b1", "The court held that X."))
	if cand == nil {
		t.Fatal("expected a candidate")
	}
	if cand.Similarity != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", cand.Similarity)
	}
	if cand.SpanIndex != 0 || cand.SpanCount != 1 {
		t.Fatalf("wrong span: %+v", cand)
	}
	if cand.BlockID != "b1" {
		t.Fatalf("block id not set: %+v", cand)
	}
}

func TestMatchNoReference(t *testing.T) {
	m := New(nil, testCfg(), nil)
	if cand := m.Match(blk("b1", "anything")); cand != nil {
		t.Fatalf("no reference should yield no candidates, got %+v", cand)
	}
}

func TestMatchBelowFloorDiscarded(t *testing.T) {
	m := New(spansOf("completely unrelated reference text about botany"), testCfg(), nil)
	if cand := m.Match(blk("b1", "quarterly earnings rose four percent")); cand != nil {
		t.Fatalf("sub-floor candidate kept: %+v", cand)
	}
}

// Case differences between sources must not depress similarity.
func TestMatchCaseInsensitive(t *testing.T) {
	m := New(spansOf("Front Matter And Preliminaries"), testCfg(), nil)
	cand := m.Match(blk("b1", "FRONT MATTER AND PRELIMINARIES"))
	if cand == nil || cand.Similarity != 1.0 {
		t.Fatalf("case fold failed: %+v", cand)
	}
}

// A PDF paragraph spanning two HTML paragraphs should match the 2-span
// concatenation with a higher score than either single span.
func TestMatchConcatenation(t *testing.T) {
	m := New(spansOf(
		"The court held that the statute applies.",
		"It further held that the remedy was proper.",
	), testCfg(), nil)

	cand := m.Match(blk("b1", "The court held that the statute applies. It further held that the remedy was proper."))
	if cand == nil {
		t.Fatal("expected a candidate")
	}
	if cand.SpanCount != 2 {
		t.Fatalf("expected 2-span concatenation, got %+v", cand)
	}
	if cand.SpanIndex != 0 {
		t.Fatalf("wrong starting span: %+v", cand)
	}
	if cand.Similarity < 0.95 {
		t.Fatalf("concatenated similarity too low: %v", cand.Similarity)
	}
}

// The window advances past consumed spans so that a later identical block
// prefers the next occurrence in document order.
func TestMatchWindowAdvances(t *testing.T) {
	m := New(spansOf("Alpha paragraph.", "Beta paragraph.", "Gamma paragraph."), testCfg(), nil)

	first := m.Match(blk("b1", "Alpha paragraph."))
	if first == nil || first.SpanIndex != 0 {
		t.Fatalf("first match wrong: %+v", first)
	}

	second := m.Match(blk("b2", "Beta paragraph."))
	if second == nil || second.SpanIndex != 1 {
		t.Fatalf("window did not advance: %+v", second)
	}

	if m.Remaining() != 1 {
		t.Fatalf("remaining = %d, want 1", m.Remaining())
	}
}

// A block matching a span far outside the window is found by the one-shot
// full-reference scan.
func TestMatchWidenSearch(t *testing.T) {
	texts := make([]string, 0, 40)
	for i := 0; i < 39; i++ {
		texts = append(texts, fmt.Sprintf("Filler paragraph number %d with some padding text.", i))
	}
	texts = append(texts, "A distinctive conclusion about maritime law.")

	m := New(spansOf(texts...), testCfg(), nil)

	cand := m.Match(blk("b1", "A distinctive conclusion about maritime law."))
	if cand == nil {
		t.Fatal("widen search should have found the distant span")
	}
	if cand.SpanIndex != 39 || cand.Similarity != 1.0 {
		t.Fatalf("wrong candidate: %+v", cand)
	}
}

// The full-reference scan is spent once per document.
func TestMatchWidenSearchOnlyOnce(t *testing.T) {
	texts := make([]string, 0, 40)
	for i := 0; i < 38; i++ {
		texts = append(texts, fmt.Sprintf("Filler paragraph number %d with some padding text.", i))
	}
	texts = append(texts, "A distinctive conclusion about maritime law.")
	texts = append(texts, "An equally distinctive holding about aviation law.")

	m := New(spansOf(texts...), testCfg(), nil)

	if cand := m.Match(blk("b1", "A distinctive conclusion about maritime law.")); cand == nil {
		t.Fatal("first widen search should succeed")
	}
	// The accepted match moved the window to span 39, so the second block
	// is found by the ordinary window, not a second full scan.
	if cand := m.Match(blk("b2", "An equally distinctive holding about aviation law.")); cand == nil || cand.SpanIndex != 39 {
		t.Fatalf("window after widen search wrong: %+v", cand)
	}

	// A block matching nothing nearby and nothing in the window now stays
	// unmatched; the full scan is gone.
	if cand := m.Match(blk("b3", "Filler paragraph number 2 with some padding text.")); cand != nil {
		t.Fatalf("second full scan should not have happened: %+v", cand)
	}
}

// Ties at the best similarity resolve to the lowest span index.
func TestMatchTieLowestIndex(t *testing.T) {
	m := New(spansOf("Repeated heading.", "Repeated heading.", "Repeated heading."), testCfg(), nil)

	cand := m.Match(blk("b1", "Repeated heading."))
	if cand == nil || cand.SpanIndex != 0 {
		t.Fatalf("tie should pick lowest span index: %+v", cand)
	}
}

func TestMatchDeterministic(t *testing.T) {
	spans := spansOf("Alpha paragraph.", "Beta paragraph.", "Gamma paragraph.")
	blocks := []block.TextBlock{
		blk("b1", "Alpha paragraph."),
		blk("b2", "Gamma paragraph."),
		blk("b3", "Beta paragraph."),
	}

	run := func() []*block.MatchCandidate {
		m := New(spans, testCfg(), nil)
		out := make([]*block.MatchCandidate, len(blocks))
		for i, b := range blocks {
			out[i] = m.Match(b)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if (a[i] == nil) != (b[i] == nil) {
			t.Fatalf("run divergence at %d", i)
		}
		if a[i] != nil && *a[i] != *b[i] {
			t.Fatalf("candidates differ at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
