// Package classifier matches clauses against a risk taxonomy, either by
// embedding similarity or by the keyword rule table, and aggregates clause
// risks into a contract-level verdict.
package classifier

import (
	"fmt"
	"math"

	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/model"
)

// NoCluster is the ClusterID reported when no taxonomy entry was consulted.
const NoCluster = -1

// Match is the classification of one clause.
type Match struct {
	Label      string
	Risk       model.RiskLevel
	Similarity float64
	ClusterID  int
}

// Strategy classifies clauses, returning one Match per clause in order.
// A Strategy either classifies every clause or returns an error.
type Strategy interface {
	Classify(clauses []string) ([]Match, error)
	Mode() string
}

var (
	_ Strategy = (*Embedding)(nil)
	_ Strategy = (*Keyword)(nil)
)

// Embedding scores clauses by cosine similarity to taxonomy centroids.
type Embedding struct {
	emb embedder.Embedder
	tax *taxonomy.Taxonomy
}

// NewEmbedding pairs an embedder with a taxonomy built by the same model.
func NewEmbedding(emb embedder.Embedder, tax *taxonomy.Taxonomy) (*Embedding, error) {
	if tax == nil || len(tax.Entries) == 0 {
		return nil, fmt.Errorf("classifier: %w: empty taxonomy", model.ErrConfiguration)
	}
	if emb.ModelID() != tax.EmbeddingModelID {
		return nil, fmt.Errorf("classifier: %w: taxonomy built with %q, embedder is %q",
			model.ErrConfiguration, tax.EmbeddingModelID, emb.ModelID())
	}
	if d := emb.Dim(); d > 0 && d != tax.Dim() {
		return nil, fmt.Errorf("classifier: %w: embedder dim %d, taxonomy dim %d",
			model.ErrConfiguration, d, tax.Dim())
	}
	return &Embedding{emb: emb, tax: tax}, nil
}

func (e *Embedding) Mode() string { return model.ModeEmbedding }

// Classify embeds all clauses in one batch and assigns each the entry with
// the highest cosine similarity. Equal similarities go to the lower cluster id.
func (e *Embedding) Classify(clauses []string) ([]Match, error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	vecs, err := e.emb.EmbedBatch(clauses)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w: %w", model.ErrEvaluationFailed, err)
	}
	if len(vecs) != len(clauses) {
		return nil, fmt.Errorf("classifier: %w: %d vectors for %d clauses",
			model.ErrEvaluationFailed, len(vecs), len(clauses))
	}

	dim := e.tax.Dim()
	matches := make([]Match, len(clauses))
	for i, vec := range vecs {
		if len(vec) != dim {
			return nil, fmt.Errorf("classifier: %w: clause %d has dim %d, taxonomy dim %d",
				model.ErrEvaluationFailed, i, len(vec), dim)
		}
		matches[i] = e.best(vec)
	}
	return matches, nil
}

func (e *Embedding) best(vec []float32) Match {
	best := &e.tax.Entries[0]
	bestSim := cosineSimilarity(vec, best.Centroid)
	for j := 1; j < len(e.tax.Entries); j++ {
		entry := &e.tax.Entries[j]
		sim := cosineSimilarity(vec, entry.Centroid)
		if sim > bestSim || (sim == bestSim && entry.ClusterID < best.ClusterID) {
			best, bestSim = entry, sim
		}
	}
	return Match{
		Label:      best.Label,
		Risk:       best.Risk,
		Similarity: roundSimilarity(bestSim),
		ClusterID:  best.ClusterID,
	}
}

// roundSimilarity clamps s to [-1, 1] and rounds it to three decimals.
func roundSimilarity(s float64) float64 {
	s = max(-1, min(1, s))
	return math.Round(s*1000) / 1000
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
