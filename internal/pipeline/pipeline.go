// Package pipeline runs documents end to end: parse both input streams,
// reconcile them page by page into a canonical block set, label the blocks
// against a ground-truth reference with classifier fallback, and append the
// results to the corpus.
//
// Documents run concurrently; pages within a document run sequentially so the
// reference matcher sees blocks in document order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/archivist-ml/collate/internal/adapters"
	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/classifier"
	"github.com/archivist-ml/collate/internal/config"
	"github.com/archivist-ml/collate/internal/corpus"
	"github.com/archivist-ml/collate/internal/match"
	"github.com/archivist-ml/collate/internal/pdfinfo"
	"github.com/archivist-ml/collate/internal/reconcile"
	"github.com/archivist-ml/collate/internal/resolve"
)

// DocumentInput is one document's worth of raw material. Reference data is
// optional; when both JSON and HTML are present the JSON wins. PDFPath is an
// optional fallback source for page dimensions when the raw stream omits them.
type DocumentInput struct {
	DocumentID string

	RawJSON        []byte
	ClassifiedJSON []byte

	ReferenceJSON     []byte
	ReferenceHTML     string
	ReferenceFullPage bool

	PDFPath string
}

// DocumentReport summarizes one document run.
type DocumentReport struct {
	DocumentID string
	Pages      int
	Blocks     int
	Recovered  int
	Stats      resolve.TierStats
	Warnings   []Warning
	// Err is non-nil when the document was skipped entirely.
	Err error
}

// BatchReport collects per-document reports in input order.
type BatchReport struct {
	Documents []DocumentReport
}

// Failed counts documents that were skipped.
func (r *BatchReport) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Pipeline wires the stages together. Safe for concurrent use; all mutable
// state is per-document.
type Pipeline struct {
	cfg      config.Config
	store    *corpus.Store
	fallback classifier.Classifier
	logger   *slog.Logger
}

// New creates a pipeline. fallback may be nil when no classifier is
// configured; unmatched blocks then land in the unresolved tier.
func New(cfg config.Config, store *corpus.Store, fallback classifier.Classifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, store: store, fallback: fallback, logger: logger}
}

// Run processes a batch of documents with bounded concurrency. A corrupt
// document is recorded in its report and skipped; Run only returns an error
// when the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, inputs []DocumentInput) (*BatchReport, error) {
	report := &BatchReport{Documents: make([]DocumentReport, len(inputs))}

	g, gctx := errgroup.WithContext(ctx)
	workers := p.cfg.Pipeline.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep := p.ProcessDocument(gctx, in)
			report.Documents[i] = rep
			if rep.Err != nil {
				p.logger.Error("document skipped",
					"document_id", rep.DocumentID, "error", rep.Err)
				return nil
			}
			p.logger.Info("document processed",
				"document_id", rep.DocumentID,
				"pages", rep.Pages,
				"blocks", rep.Blocks,
				"recovered", rep.Recovered,
				"ground_truth", rep.Stats.GroundTruth,
				"classifier", rep.Stats.Classifier,
				"unresolved", rep.Stats.Unresolved,
				"warnings", len(rep.Warnings))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// ProcessDocument runs a single document through reconcile, match, resolve
// and corpus append. The returned report carries any failure in Err.
func (p *Pipeline) ProcessDocument(ctx context.Context, in DocumentInput) DocumentReport {
	rep := DocumentReport{DocumentID: in.DocumentID}

	blocks, err := p.extract(in, &rep)
	if err != nil {
		rep.Err = err
		return rep
	}

	if err := p.store.AppendExtracted(ctx, rep.DocumentID, blocks); err != nil {
		rep.Err = fmt.Errorf("appending extracted blocks: %w", err)
		return rep
	}

	p.label(ctx, in, blocks, &rep)

	if rep.Stats.AlarmBreached(p.resolveConfig()) {
		rep.Warnings = append(rep.Warnings, Warning{
			Kind: WarnTierAlarm,
			Detail: fmt.Sprintf("%.0f%% of blocks unresolved",
				rep.Stats.Fraction(block.TierUnresolved)*100),
		})
		p.logger.Warn("unresolved fraction above alarm threshold",
			"document_id", rep.DocumentID,
			"unresolved", rep.Stats.Unresolved,
			"total", rep.Stats.Total())
	}

	if err := p.store.AppendLabeled(ctx, rep.DocumentID, blocks); err != nil {
		rep.Err = fmt.Errorf("appending labeled blocks: %w", err)
		return rep
	}

	rep.Blocks = len(blocks)
	return rep
}

// extract parses both streams and reconciles them page by page into the
// canonical block set, in reading order across ascending page numbers.
func (p *Pipeline) extract(in DocumentInput, rep *DocumentReport) ([]block.TextBlock, error) {
	var lookup adapters.DimsLookup
	if in.PDFPath != "" {
		lk, err := pdfinfo.Lookup(in.PDFPath)
		if err != nil {
			p.logger.Warn("page dimensions unavailable from pdf",
				"document_id", in.DocumentID, "path", in.PDFPath, "error", err)
		} else {
			lookup = lk
		}
	}

	rawID, raw, err := adapters.ParseRaw(in.RawJSON, lookup)
	if err != nil {
		return nil, fmt.Errorf("%w: raw stream: %v", ErrCorruptDocument, err)
	}
	classID, classified, err := adapters.ParseClassified(in.ClassifiedJSON, lookup)
	if err != nil {
		return nil, fmt.Errorf("%w: classified stream: %v", ErrCorruptDocument, err)
	}
	if rawID != classID {
		return nil, fmt.Errorf("%w: stream document ids disagree (%q vs %q)",
			ErrCorruptDocument, rawID, classID)
	}
	if rep.DocumentID == "" {
		rep.DocumentID = rawID
	} else if rep.DocumentID != rawID {
		return nil, fmt.Errorf("%w: input names document %q, streams carry %q",
			ErrCorruptDocument, rep.DocumentID, rawID)
	}

	rawPages := make(map[int][]adapters.RawRecord)
	for _, r := range raw {
		rawPages[r.PageNo] = append(rawPages[r.PageNo], r)
	}
	classPages := make(map[int][]adapters.ClassifiedRecord)
	for _, c := range classified {
		classPages[c.PageNo] = append(classPages[c.PageNo], c)
	}

	pages := make([]int, 0, len(rawPages)+len(classPages))
	seen := make(map[int]bool)
	for n := range rawPages {
		seen[n] = true
		pages = append(pages, n)
	}
	for n := range classPages {
		if !seen[n] {
			pages = append(pages, n)
		}
	}
	sort.Ints(pages)

	rcfg := reconcile.Config{
		DedupOverlapFraction: p.cfg.Reconcile.DedupOverlapFraction,
		NearDupSimilarity:    p.cfg.Reconcile.NearDupSimilarity,
	}
	var blocks []block.TextBlock
	for _, pageNo := range pages {
		res := reconcile.Page(rep.DocumentID, pageNo, rawPages[pageNo], classPages[pageNo], rcfg)
		if res.Partial {
			rep.Warnings = append(rep.Warnings, Warning{
				Kind:   WarnPartialPage,
				PageNo: pageNo,
				Detail: "one input stream empty, proceeding with the other",
			})
			p.logger.Warn("partial page",
				"document_id", rep.DocumentID, "page", pageNo)
		}
		rep.Recovered += res.Recovered
		blocks = append(blocks, res.Blocks...)
	}
	rep.Pages = len(pages)
	return blocks, nil
}

// label matches blocks against the reference and resolves a label tier for
// each, annotating the blocks in place.
func (p *Pipeline) label(ctx context.Context, in DocumentInput, blocks []block.TextBlock, rep *DocumentReport) {
	spans := p.referenceSpans(in, rep)
	matcher := match.New(spans, match.Config{
		WindowStart:     p.cfg.Match.WindowStart,
		WindowMax:       p.cfg.Match.WindowMax,
		FloorSimilarity: p.cfg.Match.FloorSimilarity,
		AcceptThreshold: p.cfg.Match.AcceptThreshold,
		MaxConcatSpans:  p.cfg.Match.MaxConcatSpans,
	}, p.logger)

	rcfg := p.resolveConfig()
	for i := range blocks {
		b := &blocks[i]

		cand := matcher.Match(*b)
		if cand != nil && cand.Tied {
			rep.Warnings = append(rep.Warnings, Warning{
				Kind:    WarnAmbiguousMatch,
				PageNo:  b.PageNo,
				BlockID: b.ID,
				Detail:  fmt.Sprintf("similarity tie at %.2f, kept span %d", cand.Similarity, cand.SpanIndex),
			})
		}

		var pred *classifier.Prediction
		if cand == nil || cand.Similarity < rcfg.AcceptThreshold {
			pred = classifier.FromLayout(*b)
			if pred == nil {
				pred = p.classify(ctx, *b, rep)
			}
		}

		d := resolve.Resolve(cand, pred, rcfg)
		resolve.Apply(b, d)
		rep.Stats.Add(d)
	}
}

// classify calls the fallback classifier under the configured per-call
// timeout. Any failure is reported as a warning and the block stays
// unresolved.
func (p *Pipeline) classify(ctx context.Context, b block.TextBlock, rep *DocumentReport) *classifier.Prediction {
	if p.fallback == nil || !p.cfg.Classifier.Enabled {
		return nil
	}

	cctx := ctx
	if p.cfg.Classifier.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, p.cfg.Classifier.Timeout)
		defer cancel()
	}

	pred, err := p.fallback.Classify(cctx, b)
	if err != nil {
		rep.Warnings = append(rep.Warnings, Warning{
			Kind:    WarnClassifierUnavailable,
			PageNo:  b.PageNo,
			BlockID: b.ID,
			Detail:  err.Error(),
		})
		p.logger.Warn("fallback classifier failed",
			"document_id", rep.DocumentID, "block_id", b.ID, "error", err)
		return nil
	}
	return pred
}

// referenceSpans parses whichever reference form the input carries. Reference
// parse failures degrade to classifier-only labeling rather than failing the
// document.
func (p *Pipeline) referenceSpans(in DocumentInput, rep *DocumentReport) []block.ReferenceSpan {
	switch {
	case len(in.ReferenceJSON) > 0:
		spans, err := adapters.ParseReference(in.ReferenceJSON)
		if err != nil {
			p.logger.Warn("reference unusable, labeling without ground truth",
				"document_id", rep.DocumentID, "error", err)
			return nil
		}
		return spans
	case in.ReferenceHTML != "":
		spans, err := adapters.ParseReferenceHTML(in.ReferenceHTML, in.ReferenceFullPage)
		if err != nil {
			p.logger.Warn("reference unusable, labeling without ground truth",
				"document_id", rep.DocumentID, "error", err)
			return nil
		}
		return spans
	}
	return nil
}

func (p *Pipeline) resolveConfig() resolve.Config {
	return resolve.Config{
		AcceptThreshold:     p.cfg.Match.AcceptThreshold,
		ClassifierThreshold: p.cfg.Resolve.ClassifierThreshold,
		Tier3AlarmFraction:  p.cfg.Resolve.Tier3AlarmFraction,
	}
}
