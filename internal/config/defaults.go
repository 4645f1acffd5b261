package config

import "time"

// DefaultConfig returns configuration with sensible defaults. The
// reconcile/match thresholds were tuned against a held-out document set.
func DefaultConfig() *Config {
	return &Config{
		Reconcile: ReconcileCfg{
			DedupOverlapFraction: 0.5,
			NearDupSimilarity:    0.90,
		},
		Match: MatchCfg{
			WindowStart:     3,
			WindowMax:       10,
			FloorSimilarity: 0.5,
			AcceptThreshold: 0.80,
			MaxConcatSpans:  3,
		},
		Resolve: ResolveCfg{
			ClassifierThreshold: 0.80,
			Tier3AlarmFraction:  0.30,
		},
		Classifier: ClassifierCfg{
			Type:    "openai",
			Model:   "gpt-4o-mini",
			APIKey:  "${OPENAI_API_KEY}",
			Timeout: 60 * time.Second,
			Enabled: true,
		},
		Corpus: CorpusCfg{
			Path: "collate-corpus.db",
		},
		Pipeline: PipelineCfg{
			MaxWorkers: 8,
		},
	}
}
