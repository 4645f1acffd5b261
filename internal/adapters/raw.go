// Package adapters normalizes the three external input streams (raw OCR,
// layout classifier, ground-truth reference) into the pipeline's internal
// record types. Adapters are the only place pixel coordinates and
// source-specific tokenization exist; everything downstream sees normalized
// text and [0,1] bboxes.
package adapters

import (
	"fmt"

	"github.com/archivist-ml/collate/internal/geom"
	"github.com/archivist-ml/collate/internal/textnorm"
)

// PageDims holds a page's pixel (or point) dimensions. Only the aspect
// ratios matter for bbox normalization, so points from a PDF and pixels
// from a raster are interchangeable here.
type PageDims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DimsLookup resolves page dimensions for pages the input document does not
// carry them for (e.g. from the source PDF). May be nil.
type DimsLookup func(pageNo int) (PageDims, bool)

// RawRecord is one normalized fragment from the raw OCR stream.
type RawRecord struct {
	Text       string // canonical normalized form
	BBox       geom.Rect
	NoBBox     bool
	PageNo     int
	Confidence float64
}

// rawDocument mirrors the raw OCR engine's JSON output.
type rawDocument struct {
	DocumentID string `json:"document_id"`
	Pages      []struct {
		Page   int     `json:"page"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"pages"`
	Fragments []struct {
		Text       string     `json:"text"`
		Confidence float64    `json:"confidence"`
		BBox       *[4]float64 `json:"bbox"`
		Page       int        `json:"page"`
	} `json:"fragments"`
}

// ParseRaw validates and adapts a raw OCR document. Fragments whose text
// normalizes to empty are dropped (pure-whitespace OCR noise). A fragment
// with a bbox but no resolvable page dimensions is kept without position,
// same as a fragment with no bbox at all.
func ParseRaw(data []byte, lookup DimsLookup) (string, []RawRecord, error) {
	var doc rawDocument
	if err := validate(rawSchema, data, &doc); err != nil {
		return "", nil, fmt.Errorf("raw stream: %w", err)
	}

	dims := make(map[int]PageDims, len(doc.Pages))
	for _, p := range doc.Pages {
		dims[p.Page] = PageDims{Width: p.Width, Height: p.Height}
	}

	records := make([]RawRecord, 0, len(doc.Fragments))
	for _, f := range doc.Fragments {
		text := textnorm.Normalize(f.Text)
		if text == "" {
			continue
		}
		rec := RawRecord{
			Text:       text,
			PageNo:     f.Page,
			Confidence: f.Confidence,
			NoBBox:     true,
		}
		if f.BBox != nil {
			if d, ok := pageDims(dims, lookup, f.Page); ok {
				rec.BBox, rec.NoBBox = normalizeBBox(*f.BBox, d)
			}
		}
		records = append(records, rec)
	}

	return doc.DocumentID, records, nil
}

func pageDims(dims map[int]PageDims, lookup DimsLookup, pageNo int) (PageDims, bool) {
	if d, ok := dims[pageNo]; ok {
		return d, true
	}
	if lookup != nil {
		return lookup(pageNo)
	}
	return PageDims{}, false
}

// normalizeBBox converts an [x, y, w, h] bbox to the normalized space, or
// rejects it when the coordinates do not fit the page. Dimensions looked up
// from a PDF are in points while OCR on a rendered raster reports pixels; a
// coordinate past the page edge means the two spaces disagree, and a
// position-less record is better than a clamped bbox that corrupts reading
// order and dedup. Returns the rect plus the record's NoBBox value.
func normalizeBBox(b [4]float64, d PageDims) (geom.Rect, bool) {
	if b[0] < 0 || b[1] < 0 || b[0]+b[2] > d.Width || b[1]+b[3] > d.Height {
		return geom.Rect{}, true
	}
	return geom.FromPixels(b[0], b[1], b[2], b[3], d.Width, d.Height), false
}
