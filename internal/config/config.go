// Package config loads covenant settings.
//
// Values are layered, lowest precedence first:
//  1. defaults (Default)
//  2. a YAML file named by COVENANT_CONFIG, if set
//  3. environment variables prefixed COVENANT_ (COVENANT_CLUSTER_COUNT -> cluster_count)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Embedder kinds.
const (
	EmbedderONNX    = "onnx"
	EmbedderHashing = "hashing"
)

const envPrefix = "COVENANT_"

// Config holds all covenant configuration.
type Config struct {
	LogLevel string `koanf:"log_level"` // debug, info, warn, error
	LogJSON  bool   `koanf:"log_json"`

	// Online classification.
	TaxonomyPath string `koanf:"taxonomy_path"`
	ModelDir     string `koanf:"model_dir"` // model.onnx, vocab.txt, optional 2_Dense/model.safetensors
	ModelID      string `koanf:"model_id"`
	RulesPath    string `koanf:"rules_path"` // optional YAML keyword rules; empty uses the built-in table

	// Offline taxonomy build.
	CorpusPath     string `koanf:"corpus_path"`
	ClusterCount   int    `koanf:"cluster_count"`
	Seed           uint64 `koanf:"seed"`
	MaxIterations  int    `koanf:"max_iterations"`
	EmbedBatchSize int    `koanf:"embed_batch_size"`
	EmbedWorkers   int    `koanf:"embed_workers"`
	CachePath      string `koanf:"cache_path"` // optional sqlite embedding cache

	Embedder   string `koanf:"embedder"` // onnx or hashing
	HashingDim int    `koanf:"hashing_dim"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:       "info",
		TaxonomyPath:   "data/taxonomy.json",
		ModelDir:       "models",
		ModelID:        "nlpaueb/legal-bert-base-uncased",
		CorpusPath:     "data/CUAD_v1.json",
		ClusterCount:   20,
		Seed:           42,
		MaxIterations:  100,
		EmbedBatchSize: 32,
		EmbedWorkers:   4,
		Embedder:       EmbedderONNX,
		HashingDim:     512,
	}
}

// Load layers the config file and environment over Default. It does not
// validate; call Validate once command-line overrides are applied.
func Load() (Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks all fields and reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q must be debug, info, warn or error", c.LogLevel))
	}
	if c.TaxonomyPath == "" {
		errs = append(errs, errors.New("taxonomy_path must be set"))
	}
	if c.ClusterCount <= 0 {
		errs = append(errs, fmt.Errorf("cluster_count must be positive, got %d", c.ClusterCount))
	}
	if c.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations))
	}
	if c.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embed_batch_size must be positive, got %d", c.EmbedBatchSize))
	}
	if c.EmbedWorkers <= 0 {
		errs = append(errs, fmt.Errorf("embed_workers must be positive, got %d", c.EmbedWorkers))
	}
	switch c.Embedder {
	case EmbedderONNX:
		if c.ModelDir == "" {
			errs = append(errs, errors.New("model_dir must be set for the onnx embedder"))
		}
	case EmbedderHashing:
		if c.HashingDim <= 0 {
			errs = append(errs, fmt.Errorf("hashing_dim must be positive, got %d", c.HashingDim))
		}
	default:
		errs = append(errs, fmt.Errorf("embedder %q must be %s or %s", c.Embedder, EmbedderONNX, EmbedderHashing))
	}
	if c.RulesPath != "" {
		if _, err := os.Stat(c.RulesPath); err != nil {
			errs = append(errs, fmt.Errorf("rules_path: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
