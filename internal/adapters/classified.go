package adapters

import (
	"fmt"

	"github.com/archivist-ml/collate/internal/geom"
	"github.com/archivist-ml/collate/internal/textnorm"
)

// ClassifiedRecord is one normalized block from the layout classifier stream.
// Label is the model's raw label string (e.g. "Paragraph", "Section header"),
// not yet mapped into the canonical vocabulary.
type ClassifiedRecord struct {
	Text       string
	BBox       geom.Rect
	NoBBox     bool
	PageNo     int
	Label      string
	Confidence float64
}

type classifiedDocument struct {
	DocumentID string `json:"document_id"`
	Pages      []struct {
		Page   int     `json:"page"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"pages"`
	Blocks []struct {
		Text       string     `json:"text"`
		Label      string     `json:"label"`
		Confidence float64    `json:"confidence"`
		BBox       *[4]float64 `json:"bbox"`
		Page       int        `json:"page"`
	} `json:"blocks"`
}

// ParseClassified validates and adapts a layout-classifier document.
func ParseClassified(data []byte, lookup DimsLookup) (string, []ClassifiedRecord, error) {
	var doc classifiedDocument
	if err := validate(classifiedSchema, data, &doc); err != nil {
		return "", nil, fmt.Errorf("classified stream: %w", err)
	}

	dims := make(map[int]PageDims, len(doc.Pages))
	for _, p := range doc.Pages {
		dims[p.Page] = PageDims{Width: p.Width, Height: p.Height}
	}

	records := make([]ClassifiedRecord, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		text := textnorm.Normalize(b.Text)
		if text == "" {
			continue
		}
		rec := ClassifiedRecord{
			Text:       text,
			PageNo:     b.Page,
			Label:      b.Label,
			Confidence: b.Confidence,
			NoBBox:     true,
		}
		if b.BBox != nil {
			if d, ok := pageDims(dims, lookup, b.Page); ok {
				rec.BBox, rec.NoBBox = normalizeBBox(*b.BBox, d)
			}
		}
		records = append(records, rec)
	}

	return doc.DocumentID, records, nil
}
