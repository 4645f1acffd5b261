package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/textnorm"
)

// referenceDocument mirrors a pre-parsed reference span list.
type referenceDocument struct {
	DocumentID string `json:"document_id"`
	Spans      []struct {
		Text        string `json:"text"`
		SectionType string `json:"section_type"`
	} `json:"spans"`
}

// ParseReference validates and adapts a pre-parsed reference span list.
// Span order is the document order of the ground-truth source and is the
// basis of the matcher's locality window; it is preserved exactly.
func ParseReference(data []byte) ([]block.ReferenceSpan, error) {
	var doc referenceDocument
	if err := validate(referenceSchema, data, &doc); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	spans := make([]block.ReferenceSpan, 0, len(doc.Spans))
	for _, s := range doc.Spans {
		text := textnorm.Normalize(s.Text)
		if text == "" {
			continue
		}
		spans = append(spans, block.ReferenceSpan{
			Text:        text,
			SectionType: block.Label(s.SectionType),
			OrderIndex:  len(spans),
		})
	}
	return spans, nil
}

// footnoteSelector matches the footnote markup conventions seen across
// ground-truth article sources (journal HTML, legal databases).
const footnoteSelector = `.footnote, .footnotes li, [class*="footnote"], section[role="doc-endnotes"] li, aside.notes li`

// ParseReferenceHTML extracts ordered reference spans from ground-truth HTML.
// When fullPage is set the markup is first reduced to its article body with
// readability, stripping navigation and chrome; pass false for fragments that
// are already just article content. Paragraph-level elements become body_text
// spans and footnote-marked elements become footnote spans, in document order.
func ParseReferenceHTML(html string, fullPage bool) ([]block.ReferenceSpan, error) {
	content := html
	if fullPage {
		parser := readability.NewParser()
		article, err := parser.Parse(strings.NewReader(html), &url.URL{Scheme: "https", Host: "reference.invalid"})
		if err != nil {
			return nil, fmt.Errorf("readability parse failed: %w", err)
		}
		content = article.Content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse reference HTML: %w", err)
	}

	var spans []block.ReferenceSpan

	appendSpan := func(text string, sectionType block.Label) {
		text = textnorm.Normalize(text)
		if text == "" {
			return
		}
		spans = append(spans, block.ReferenceSpan{
			Text:        text,
			SectionType: sectionType,
			OrderIndex:  len(spans),
		})
	}

	doc.Find("p, li, blockquote").Each(func(i int, s *goquery.Selection) {
		// An ancestor element already contributed this text.
		if s.ParentsFiltered("p, li, blockquote").Length() > 0 {
			return
		}
		// Elements carrying footnote markup, or nested inside a footnote
		// container, are footnote spans; everything else is body text.
		if isFootnote(s) || s.ParentsFiltered(footnoteSelector).Length() > 0 {
			appendSpan(s.Text(), block.LabelFootnote)
			return
		}
		appendSpan(s.Text(), block.LabelBodyText)
	})

	return spans, nil
}

func isFootnote(s *goquery.Selection) bool {
	if s.Is(footnoteSelector) {
		return true
	}
	class, _ := s.Attr("class")
	return strings.Contains(strings.ToLower(class), "footnote")
}
