// Package pdfinfo reads page dimensions from source PDFs. The raw OCR
// stream usually carries page pixel dimensions itself; when it doesn't,
// bbox normalization falls back to the media box of the original PDF.
package pdfinfo

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/archivist-ml/collate/internal/adapters"
)

// Dims returns per-page dimensions for the PDF at path, keyed by 1-indexed
// page number. Values are in PDF points. OCR coordinates from a rendered
// raster are in pixels and scale with the render DPI; the adapters reject a
// bbox whose coordinates fall outside these dimensions rather than normalize
// it against the wrong space.
func Dims(path string) (map[int]adapters.PageDims, error) {
	pageDims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions from %s: %w", path, err)
	}

	dims := make(map[int]adapters.PageDims, len(pageDims))
	for i, d := range pageDims {
		dims[i+1] = adapters.PageDims{Width: d.Width, Height: d.Height}
	}
	return dims, nil
}

// Lookup wraps Dims in an adapters.DimsLookup. The PDF is read once.
func Lookup(path string) (adapters.DimsLookup, error) {
	dims, err := Dims(path)
	if err != nil {
		return nil, err
	}
	return func(pageNo int) (adapters.PageDims, bool) {
		d, ok := dims[pageNo]
		return d, ok
	}, nil
}
