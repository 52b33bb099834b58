package classifier

import (
	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/model"
)

// Keyword classifies clauses with the ordered keyword rule table. It needs
// no model and never fails.
type Keyword struct {
	table *keywords.Table
}

// NewKeyword returns a keyword strategy. A nil table selects keywords.Default.
func NewKeyword(table *keywords.Table) *Keyword {
	if table == nil {
		table = keywords.Default()
	}
	return &Keyword{table: table}
}

func (k *Keyword) Mode() string { return model.ModeKeyword }

// Classify reports the first matching rule for each clause with similarity
// 0. Unmatched clauses are labeled Unknown with Low risk.
func (k *Keyword) Classify(clauses []string) ([]Match, error) {
	matches := make([]Match, len(clauses))
	for i, c := range clauses {
		r, _ := k.table.Match(c)
		matches[i] = Match{Label: r.Label, Risk: r.Risk, ClusterID: NoCluster}
	}
	return matches, nil
}
