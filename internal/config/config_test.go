package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultThresholds(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Match.AcceptThreshold != 0.80 {
		t.Fatalf("accept threshold = %v, want 0.80", cfg.Match.AcceptThreshold)
	}
	if cfg.Match.WindowStart != 3 || cfg.Match.WindowMax != 10 {
		t.Fatalf("window bounds = %d/%d, want 3/10", cfg.Match.WindowStart, cfg.Match.WindowMax)
	}
	if cfg.Reconcile.DedupOverlapFraction != 0.5 {
		t.Fatalf("dedup overlap = %v, want 0.5", cfg.Reconcile.DedupOverlapFraction)
	}
	if cfg.Resolve.ClassifierThreshold != 0.80 {
		t.Fatalf("classifier threshold = %v, want 0.80", cfg.Resolve.ClassifierThreshold)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap above one", func(c *Config) { c.Reconcile.DedupOverlapFraction = 1.5 }},
		{"negative accept", func(c *Config) { c.Match.AcceptThreshold = -0.1 }},
		{"floor above accept", func(c *Config) { c.Match.FloorSimilarity = 0.9 }},
		{"window max below start", func(c *Config) { c.Match.WindowMax = 1 }},
		{"zero workers", func(c *Config) { c.Pipeline.MaxWorkers = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("COLLATE_TEST_KEY", "secret123")

	if got := ResolveEnvVars("${COLLATE_TEST_KEY}"); got != "secret123" {
		t.Fatalf("ResolveEnvVars = %q, want secret123", got)
	}
	if got := ResolveEnvVars("plain-value"); got != "plain-value" {
		t.Fatalf("plain value changed: %q", got)
	}
	if got := ResolveEnvVars(""); got != "" {
		t.Fatalf("empty value changed: %q", got)
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return cm
}

func TestManager_ReloadNotifiesCallbacks(t *testing.T) {
	cm := newTestManager(t)

	updated := DefaultConfig().Match
	updated.AcceptThreshold = 0.9
	viper.Set("match", updated)
	defer viper.Set("match", DefaultConfig().Match)

	var got *Config
	cm.OnChange(func(c *Config) { got = c })
	cm.reload()

	if got == nil {
		t.Fatal("OnChange callback not invoked on reload")
	}
	if got.Match.AcceptThreshold != 0.9 {
		t.Fatalf("callback saw accept threshold %v, want 0.9", got.Match.AcceptThreshold)
	}
	if cm.Get().Match.AcceptThreshold != 0.9 {
		t.Fatalf("snapshot not swapped: %v", cm.Get().Match.AcceptThreshold)
	}
}

func TestManager_ReloadKeepsSnapshotOnInvalidState(t *testing.T) {
	cm := newTestManager(t)

	bad := DefaultConfig().Match
	bad.AcceptThreshold = -1
	viper.Set("match", bad)
	defer viper.Set("match", DefaultConfig().Match)

	fired := false
	cm.OnChange(func(*Config) { fired = true })
	cm.reload()

	if fired {
		t.Fatal("callback fired for an invalid config")
	}
	if cm.Get().Match.AcceptThreshold != 0.80 {
		t.Fatalf("previous snapshot lost: %v", cm.Get().Match.AcceptThreshold)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)
	for _, want := range []string{"reconcile:", "match:", "resolve:", "classifier:", "corpus:", "pipeline:"} {
		if !strings.Contains(content, want) {
			t.Fatalf("written config missing %q:\n%s", want, content)
		}
	}
}
