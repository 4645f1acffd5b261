package adapters

import (
	"testing"

	"github.com/archivist-ml/collate/internal/block"
)

func TestParseReferenceHTMLFragment(t *testing.T) {
	html := `
		<div>
			<p>The court held that X.</p>
			<p>A second paragraph of the opinion.</p>
			<div class="footnotes">
				<ol>
					<li>See Smith v. Jones, 12 U.S. 345.</li>
					<li>Ibid. at 350.</li>
				</ol>
			</div>
		</div>`

	spans, err := ParseReferenceHTML(html, false)
	if err != nil {
		t.Fatalf("ParseReferenceHTML: %v", err)
	}
	if len(spans) != 4 {
		t.Fatalf("got %d spans, want 4: %+v", len(spans), spans)
	}

	if spans[0].Text != "The court held that X." || spans[0].SectionType != block.LabelBodyText {
		t.Fatalf("span 0 wrong: %+v", spans[0])
	}
	if spans[2].SectionType != block.LabelFootnote {
		t.Fatalf("footnote li not labeled footnote: %+v", spans[2])
	}
	for i, s := range spans {
		if s.OrderIndex != i {
			t.Fatalf("span %d has order index %d", i, s.OrderIndex)
		}
	}
}

func TestParseReferenceHTMLFootnoteClass(t *testing.T) {
	html := `<p class="footnote-ref">1. A classed footnote.</p><p>Body.</p>`
	spans, err := ParseReferenceHTML(html, false)
	if err != nil {
		t.Fatalf("ParseReferenceHTML: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans: %+v", len(spans), spans)
	}
	if spans[0].SectionType != block.LabelFootnote {
		t.Fatalf("classed footnote not detected: %+v", spans[0])
	}
}

func TestParseReferenceHTMLNestedParagraphNotDuplicated(t *testing.T) {
	html := `<ul><li><p>Only once.</p></li></ul>`
	spans, err := ParseReferenceHTML(html, false)
	if err != nil {
		t.Fatalf("ParseReferenceHTML: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("nested markup duplicated text: %+v", spans)
	}
	if spans[0].Text != "Only once." {
		t.Fatalf("unexpected text: %q", spans[0].Text)
	}
}

func TestParseReferenceHTMLNormalizesText(t *testing.T) {
	html := "<p>The court’s  view…</p>"
	spans, err := ParseReferenceHTML(html, false)
	if err != nil {
		t.Fatalf("ParseReferenceHTML: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "The court's view..." {
		t.Fatalf("text not normalized: %+v", spans)
	}
}
