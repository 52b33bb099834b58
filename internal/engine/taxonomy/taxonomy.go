// Package taxonomy builds, validates and persists the clause risk taxonomy.
package taxonomy

import (
	"fmt"

	"github.com/crimson-sun/covenant/internal/model"
)

// FormatVersion is the artifact layout this package reads and writes.
const FormatVersion = 1

// Provenance records how a taxonomy was built so a result can be audited
// and reproduced.
type Provenance struct {
	BuildID      string `json:"build_id"`
	CorpusDigest string `json:"corpus_digest"`
	RecordCount  int    `json:"record_count"`
	ClusterCount int    `json:"cluster_count"` // requested K
	Seed         uint64 `json:"seed"`
	Iterations   int    `json:"iterations"`
}

// Taxonomy is the labeled set of risk clusters clauses are scored against.
// It is never modified after it has been built or loaded, so one value can
// serve concurrent evaluations without locking.
type Taxonomy struct {
	FormatVersion    int                   `json:"format_version"`
	EmbeddingModelID string                `json:"embedding_model_id"`
	Provenance       Provenance            `json:"provenance"`
	Entries          []model.TaxonomyEntry `json:"entries"`
}

// Dim returns the centroid dimensionality.
func (t *Taxonomy) Dim() int {
	if len(t.Entries) == 0 {
		return 0
	}
	return len(t.Entries[0].Centroid)
}

// Validate checks the invariants every published taxonomy must hold.
// Violations are reported as model.ErrConfiguration.
func (t *Taxonomy) Validate() error {
	if t.FormatVersion != FormatVersion {
		return invalid("unsupported format version %d", t.FormatVersion)
	}
	if t.EmbeddingModelID == "" {
		return invalid("missing embedding model id")
	}
	if len(t.Entries) == 0 {
		return invalid("no entries")
	}

	dim := t.Dim()
	if dim == 0 {
		return invalid("entry %d has an empty centroid", t.Entries[0].ClusterID)
	}
	seen := make(map[int]bool, len(t.Entries))
	for _, e := range t.Entries {
		if seen[e.ClusterID] {
			return invalid("duplicate cluster id %d", e.ClusterID)
		}
		seen[e.ClusterID] = true
		if len(e.Centroid) != dim {
			return invalid("cluster %d centroid has dim %d, want %d", e.ClusterID, len(e.Centroid), dim)
		}
		if e.Label == "" {
			return invalid("cluster %d has no label", e.ClusterID)
		}
		if !e.Risk.Valid() {
			return invalid("cluster %d has invalid risk level", e.ClusterID)
		}
		if e.MemberCount < 1 {
			return invalid("cluster %d has member count %d", e.ClusterID, e.MemberCount)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("taxonomy: %w: %s", model.ErrConfiguration, fmt.Sprintf(format, args...))
}
