package config

import "time"

// Config holds collate configuration.
// Stored at: ./config.yaml or ~/.collate/config.yaml
type Config struct {
	Reconcile  ReconcileCfg  `mapstructure:"reconcile" yaml:"reconcile"`
	Match      MatchCfg      `mapstructure:"match" yaml:"match"`
	Resolve    ResolveCfg    `mapstructure:"resolve" yaml:"resolve"`
	Classifier ClassifierCfg `mapstructure:"classifier" yaml:"classifier"`
	Corpus     CorpusCfg     `mapstructure:"corpus" yaml:"corpus"`
	Pipeline   PipelineCfg   `mapstructure:"pipeline" yaml:"pipeline"`
}

// ReconcileCfg tunes the raw/classified stream reconciliation.
type ReconcileCfg struct {
	// DedupOverlapFraction is the bbox overlap fraction (of the smaller box)
	// above which a raw fragment whose text is contained in a classified
	// block counts as already represented.
	DedupOverlapFraction float64 `mapstructure:"dedup_overlap_fraction" yaml:"dedup_overlap_fraction"`
	// NearDupSimilarity is the minimum edit-distance similarity for two
	// normalized texts to count as the same text during deduplication.
	NearDupSimilarity float64 `mapstructure:"near_dup_similarity" yaml:"near_dup_similarity"`
}

// MatchCfg tunes ground-truth reference matching.
type MatchCfg struct {
	WindowStart     int     `mapstructure:"window_start" yaml:"window_start"`         // initial span window size
	WindowMax       int     `mapstructure:"window_max" yaml:"window_max"`             // expansion cap
	FloorSimilarity float64 `mapstructure:"floor_similarity" yaml:"floor_similarity"` // below this a window is considered empty
	AcceptThreshold float64 `mapstructure:"accept_threshold" yaml:"accept_threshold"` // inclusive Tier 1 acceptance
	MaxConcatSpans  int     `mapstructure:"max_concat_spans" yaml:"max_concat_spans"` // adjacent spans tried per candidate
}

// ResolveCfg tunes label resolution and pipeline-health reporting.
type ResolveCfg struct {
	// ClassifierThreshold is the exclusive probability bound a fallback
	// classifier prediction must exceed for Tier 2.
	ClassifierThreshold float64 `mapstructure:"classifier_threshold" yaml:"classifier_threshold"`
	// Tier3AlarmFraction flags a document for operator review when its
	// unresolved fraction exceeds this value.
	Tier3AlarmFraction float64 `mapstructure:"tier3_alarm_fraction" yaml:"tier3_alarm_fraction"`
}

// ClassifierCfg configures the fallback document-structure classifier.
type ClassifierCfg struct {
	Type    string        `mapstructure:"type" yaml:"type"`         // "openai", "mock"
	Model   string        `mapstructure:"model" yaml:"model"`       // model name for the openai type
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`   // supports ${ENV_VAR} syntax
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"` // optional override
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`   // per-call bound; a timeout is a page-level failure
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
}

// CorpusCfg configures the training corpus store.
type CorpusCfg struct {
	Path string `mapstructure:"path" yaml:"path"` // SQLite database path; empty means <home>/corpus.db
}

// PipelineCfg configures batch execution.
type PipelineCfg struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"` // concurrent documents
}
