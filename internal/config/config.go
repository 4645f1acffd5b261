package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles loading and hot-reloading configuration.
//
// Components never read from the Manager directly; the pipeline snapshots
// the Config once per batch and passes it down by value, so thresholds are
// immutable for the lifetime of a batch.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("reconcile", defaults.Reconcile)
	viper.SetDefault("match", defaults.Match)
	viper.SetDefault("resolve", defaults.Resolve)
	viper.SetDefault("classifier", defaults.Classifier)
	viper.SetDefault("corpus", defaults.Corpus)
	viper.SetDefault("pipeline", defaults.Pipeline)

	// Environment variables with COLLATE_ prefix
	viper.SetEnvPrefix("COLLATE")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.collate")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A reload never affects
// a batch already in flight; the next batch picks up the new snapshot.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cm.reload()
	})
	viper.WatchConfig()
}

// reload re-parses the current viper state, swaps the snapshot and notifies
// callbacks. A state that fails validation is ignored; the previous snapshot
// stays in effect.
func (cm *Manager) reload() {
	cfg, err := cm.load()
	if err != nil {
		return
	}

	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Validate rejects threshold values outside their meaningful ranges.
func (c *Config) Validate() error {
	if c.Reconcile.DedupOverlapFraction < 0 || c.Reconcile.DedupOverlapFraction > 1 {
		return fmt.Errorf("reconcile.dedup_overlap_fraction must be in [0,1], got %v", c.Reconcile.DedupOverlapFraction)
	}
	if c.Reconcile.NearDupSimilarity < 0 || c.Reconcile.NearDupSimilarity > 1 {
		return fmt.Errorf("reconcile.near_dup_similarity must be in [0,1], got %v", c.Reconcile.NearDupSimilarity)
	}
	if c.Match.AcceptThreshold < 0 || c.Match.AcceptThreshold > 1 {
		return fmt.Errorf("match.accept_threshold must be in [0,1], got %v", c.Match.AcceptThreshold)
	}
	if c.Match.FloorSimilarity > c.Match.AcceptThreshold {
		return fmt.Errorf("match.floor_similarity %v exceeds accept_threshold %v", c.Match.FloorSimilarity, c.Match.AcceptThreshold)
	}
	if c.Match.WindowStart < 1 || c.Match.WindowMax < c.Match.WindowStart {
		return fmt.Errorf("match window bounds invalid: start %d, max %d", c.Match.WindowStart, c.Match.WindowMax)
	}
	if c.Match.MaxConcatSpans < 1 {
		return fmt.Errorf("match.max_concat_spans must be >= 1, got %d", c.Match.MaxConcatSpans)
	}
	if c.Resolve.ClassifierThreshold < 0 || c.Resolve.ClassifierThreshold > 1 {
		return fmt.Errorf("resolve.classifier_threshold must be in [0,1], got %v", c.Resolve.ClassifierThreshold)
	}
	if c.Resolve.Tier3AlarmFraction < 0 || c.Resolve.Tier3AlarmFraction > 1 {
		return fmt.Errorf("resolve.tier3_alarm_fraction must be in [0,1], got %v", c.Resolve.Tier3AlarmFraction)
	}
	if c.Pipeline.MaxWorkers < 1 {
		return fmt.Errorf("pipeline.max_workers must be >= 1, got %d", c.Pipeline.MaxWorkers)
	}
	return nil
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Collate configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
