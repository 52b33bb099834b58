package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COVENANT_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got: %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("COVENANT_CONFIG", "")
	t.Setenv("COVENANT_CLUSTER_COUNT", "8")
	t.Setenv("COVENANT_SEED", "1234")
	t.Setenv("COVENANT_LOG_JSON", "true")
	t.Setenv("COVENANT_EMBEDDER", "hashing")
	t.Setenv("COVENANT_TAXONOMY_PATH", "/srv/taxonomy.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ClusterCount != 8 {
		t.Errorf("ClusterCount = %d, want 8", cfg.ClusterCount)
	}
	if cfg.Seed != 1234 {
		t.Errorf("Seed = %d, want 1234", cfg.Seed)
	}
	if !cfg.LogJSON {
		t.Error("LogJSON = false, want true")
	}
	if cfg.Embedder != EmbedderHashing {
		t.Errorf("Embedder = %q", cfg.Embedder)
	}
	if cfg.TaxonomyPath != "/srv/taxonomy.json" {
		t.Errorf("TaxonomyPath = %q", cfg.TaxonomyPath)
	}
	if cfg.MaxIterations != 100 {
		t.Errorf("unset keys must keep defaults, MaxIterations = %d", cfg.MaxIterations)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covenant.yaml")
	yaml := "cluster_count: 12\nmodel_dir: /opt/models\nembed_workers: 2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COVENANT_CONFIG", path)
	t.Setenv("COVENANT_EMBED_WORKERS", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ClusterCount != 12 || cfg.ModelDir != "/opt/models" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.EmbedWorkers != 6 {
		t.Errorf("env must override file, EmbedWorkers = %d", cfg.EmbedWorkers)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("COVENANT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"taxonomy path", func(c *Config) { c.TaxonomyPath = "" }, "taxonomy_path"},
		{"cluster count", func(c *Config) { c.ClusterCount = 0 }, "cluster_count"},
		{"iterations", func(c *Config) { c.MaxIterations = -1 }, "max_iterations"},
		{"batch size", func(c *Config) { c.EmbedBatchSize = 0 }, "embed_batch_size"},
		{"workers", func(c *Config) { c.EmbedWorkers = -2 }, "embed_workers"},
		{"embedder", func(c *Config) { c.Embedder = "tfidf" }, "embedder"},
		{"hashing dim", func(c *Config) { c.Embedder = EmbedderHashing; c.HashingDim = 0 }, "hashing_dim"},
		{"model dir", func(c *Config) { c.ModelDir = "" }, "model_dir"},
		{"rules file", func(c *Config) { c.RulesPath = "/nonexistent/rules.yaml" }, "rules_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.ClusterCount = 0
	cfg.LogLevel = "loud"
	cfg.Embedder = "none"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple bad fields")
	}
	msg := err.Error()
	for _, want := range []string{"cluster_count", "log_level", "embedder"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %v", want, msg)
		}
	}
}
