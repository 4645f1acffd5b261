// Package resolve assigns each canonical block exactly one (label, tier,
// confidence) under a fixed precedence: ground-truth match, then classifier
// prediction, then unresolved. Unresolved is a valid terminal state, never
// an error.
package resolve

import (
	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/classifier"
)

// Config carries the resolution thresholds.
type Config struct {
	// AcceptThreshold is the inclusive ground-truth similarity bound.
	AcceptThreshold float64
	// ClassifierThreshold is the exclusive classifier probability bound.
	ClassifierThreshold float64
	// Tier3AlarmFraction flags a document when its unresolved fraction
	// exceeds this value.
	Tier3AlarmFraction float64
}

// Decision is the resolver's verdict for one block.
type Decision struct {
	Label      block.Label
	Tier       block.Tier
	Confidence float64
}

// Resolve decides a block's label. Pure function: same inputs, same decision.
//
// Ground truth always overrides the classifier, even when the classifier is
// more confident: ground truth is the trusted signal once it clears its own
// higher-precision threshold. The boundary value is inclusive for ground
// truth and exclusive for the classifier.
func Resolve(cand *block.MatchCandidate, pred *classifier.Prediction, cfg Config) Decision {
	if cand != nil && cand.Similarity >= cfg.AcceptThreshold {
		return Decision{
			Label:      cand.SectionType,
			Tier:       block.TierGroundTruth,
			Confidence: cand.Similarity,
		}
	}

	if pred != nil && pred.Confidence > cfg.ClassifierThreshold && block.ValidLabel(pred.Label) {
		return Decision{
			Label:      pred.Label,
			Tier:       block.TierClassifier,
			Confidence: pred.Confidence,
		}
	}

	conf := 0.0
	if pred != nil && pred.Confidence > 0 {
		conf = pred.Confidence
	}
	return Decision{
		Label:      block.LabelUnresolved,
		Tier:       block.TierUnresolved,
		Confidence: conf,
	}
}

// Apply writes a decision onto a block.
func Apply(b *block.TextBlock, d Decision) {
	b.Label = d.Label
	b.Tier = d.Tier
	b.Confidence = d.Confidence
}

// TierStats accumulates per-document tier counts for pipeline health
// monitoring. Expected operating ranges are roughly 70-80% ground truth,
// 10-20% classifier, under 10% unresolved; a document far outside those is
// worth an operator's attention, not a crash.
type TierStats struct {
	GroundTruth int `json:"ground_truth_match"`
	Classifier  int `json:"classifier_prediction"`
	Unresolved  int `json:"unresolved"`
}

// Add counts a decision.
func (s *TierStats) Add(d Decision) {
	switch d.Tier {
	case block.TierGroundTruth:
		s.GroundTruth++
	case block.TierClassifier:
		s.Classifier++
	default:
		s.Unresolved++
	}
}

// Total returns the number of counted decisions.
func (s *TierStats) Total() int {
	return s.GroundTruth + s.Classifier + s.Unresolved
}

// Fraction returns a tier's share of all decisions, 0 for an empty document.
func (s *TierStats) Fraction(tier block.Tier) float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	switch tier {
	case block.TierGroundTruth:
		return float64(s.GroundTruth) / float64(total)
	case block.TierClassifier:
		return float64(s.Classifier) / float64(total)
	default:
		return float64(s.Unresolved) / float64(total)
	}
}

// AlarmBreached reports whether the unresolved fraction exceeds the
// configured alarm threshold. Empty documents never alarm.
func (s *TierStats) AlarmBreached(cfg Config) bool {
	return s.Total() > 0 && s.Fraction(block.TierUnresolved) > cfg.Tier3AlarmFraction
}
