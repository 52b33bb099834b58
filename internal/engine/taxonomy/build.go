package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/crimson-sun/covenant/internal/engine/cluster"
	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/model"
)

// buildNamespace scopes name-based build ids.
var buildNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/crimson-sun/covenant/taxonomy"))

// BuildConfig controls taxonomy construction.
type BuildConfig struct {
	ClusterCount  int
	Seed          uint64
	MaxIterations int
	Labeler       *keywords.Labeler // nil selects keywords.DefaultLabeler
}

// Build clusters the embedded corpus and derives one entry per non-empty
// cluster. vectors[i] must be the embedding of records[i] under modelID.
// Cluster ids are numbered from 0 in order of each cluster's first member,
// so identical inputs always yield an identical taxonomy.
func Build(records []model.ClauseRecord, vectors [][]float32, modelID string, cfg BuildConfig) (*Taxonomy, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("taxonomy: no records")
	}
	if len(records) != len(vectors) {
		return nil, fmt.Errorf("taxonomy: %d records but %d vectors", len(records), len(vectors))
	}
	if modelID == "" {
		return nil, fmt.Errorf("taxonomy: missing embedding model id")
	}
	labeler := cfg.Labeler
	if labeler == nil {
		labeler = keywords.DefaultLabeler()
	}

	res, err := cluster.KMeans(vectors, cluster.Config{
		K:             cfg.ClusterCount,
		Seed:          cfg.Seed,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}

	members := make(map[int][]int)
	var order []int // cluster indexes by first member
	for i, c := range res.Assignments {
		if _, ok := members[c]; !ok {
			order = append(order, c)
		}
		members[c] = append(members[c], i)
	}

	entries := make([]model.TaxonomyEntry, 0, len(order))
	for id, c := range order {
		idx := members[c]
		texts := make([]string, len(idx))
		risks := make([]model.RiskLevel, len(idx))
		for j, i := range idx {
			texts[j] = records[i].Text
			risks[j] = records[i].Risk
		}
		entries = append(entries, model.TaxonomyEntry{
			ClusterID:   id,
			Centroid:    res.Centroids[c],
			Label:       labeler.Label(texts),
			Risk:        DominantRisk(risks),
			MemberCount: len(idx),
		})
	}

	digest := Digest(records)
	tax := &Taxonomy{
		FormatVersion:    FormatVersion,
		EmbeddingModelID: modelID,
		Provenance: Provenance{
			BuildID:      buildID(digest, modelID, cfg.ClusterCount, cfg.Seed).String(),
			CorpusDigest: digest,
			RecordCount:  len(records),
			ClusterCount: cfg.ClusterCount,
			Seed:         cfg.Seed,
			Iterations:   res.Iterations,
		},
		Entries: entries,
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	slog.Info("taxonomy built",
		"build_id", tax.Provenance.BuildID,
		"records", len(records),
		"requested_clusters", cfg.ClusterCount,
		"entries", len(entries),
		"iterations", res.Iterations,
	)
	return tax, nil
}

// DominantRisk returns the most common known level. Ties, and clusters
// with no known levels, resolve to Medium.
func DominantRisk(levels []model.RiskLevel) model.RiskLevel {
	counts := map[model.RiskLevel]int{}
	for _, l := range levels {
		if l.Valid() {
			counts[l]++
		}
	}
	best, bestCount, tied := model.RiskMedium, 0, false
	for _, l := range []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh} {
		switch n := counts[l]; {
		case n > bestCount:
			best, bestCount, tied = l, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return model.RiskMedium
	}
	return best
}

// Digest fingerprints a corpus: records in order, fields length-prefixed.
func Digest(records []model.ClauseRecord) string {
	h := sha256.New()
	for _, r := range records {
		for _, f := range []string{r.SourceDocumentID, r.Category, r.Risk.String(), r.Text} {
			h.Write([]byte(strconv.Itoa(len(f))))
			h.Write([]byte{':'})
			h.Write([]byte(f))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func buildID(digest, modelID string, k int, seed uint64) uuid.UUID {
	name := digest + "|" + modelID + "|" + strconv.Itoa(k) + "|" + strconv.FormatUint(seed, 10)
	return uuid.NewSHA1(buildNamespace, []byte(name))
}
