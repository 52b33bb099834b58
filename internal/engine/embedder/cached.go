package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Cache persists vectors by model id and text key.
type Cache interface {
	Lookup(ctx context.Context, modelID string, keys []string) (map[string][]float32, error)
	Store(ctx context.Context, modelID string, vectors map[string][]float32) error
}

// Cached embeds only texts missing from cache. Cache failures are logged and
// bypassed; they never fail an embedding call.
type Cached struct {
	Embedder
	cache Cache
}

// WithCache wraps emb with cache.
func WithCache(emb Embedder, cache Cache) *Cached {
	return &Cached{Embedder: emb, cache: cache}
}

// CacheKey is the hex SHA-256 of text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Embed(text string) ([]float32, error) {
	vecs, err := c.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Cached) EmbedBatch(texts []string) ([][]float32, error) {
	ctx := context.Background()
	modelID := c.ModelID()

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = CacheKey(t)
	}

	hits, err := c.cache.Lookup(ctx, modelID, keys)
	if err != nil {
		slog.Warn("embedding cache lookup failed", "model", modelID, "error", err)
		hits = nil
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, k := range keys {
		if v, ok := hits[k]; ok && len(v) == c.Dim() {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.Embedder.EmbedBatch(missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder: %d vectors for %d texts", len(vecs), len(missTexts))
	}
	fresh := make(map[string][]float32, len(vecs))
	for j, i := range missIdx {
		out[i] = vecs[j]
		fresh[keys[i]] = vecs[j]
	}
	if err := c.cache.Store(ctx, modelID, fresh); err != nil {
		slog.Warn("embedding cache store failed", "model", modelID, "error", err)
	}
	return out, nil
}
