package covenant

import "github.com/crimson-sun/covenant/internal/model"

// Risk levels as reported in evaluations.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Evaluation is the risk assessment of one contract text.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Evaluation struct {
	Clauses          []Clause `json:"clause_evaluations"`
	AverageRiskScore float64  `json:"average_risk_score"` // mean clause weight (Low 1, Medium 2, High 3), 2 decimals
	OverallRisk      string   `json:"overall_risk_level"` // Low, Medium or High
	Mode             string   `json:"mode"`               // "embedding" or "keyword"
}

// Clause is the classification of a single clause.
type Clause struct {
	Text       string  `json:"clause_text"`
	Label      string  `json:"matched_label"`
	Risk       string  `json:"risk_level"`
	Similarity float64 `json:"similarity_score"` // cosine similarity, 3 decimals; 0 in keyword mode
	ClusterID  int     `json:"cluster_id"`       // -1 in keyword mode
}

func evaluationFromModel(ev model.ContractEvaluation) Evaluation {
	clauses := make([]Clause, len(ev.Clauses))
	for i, c := range ev.Clauses {
		clauses[i] = Clause{
			Text:       c.ClauseText,
			Label:      c.Label,
			Risk:       c.Risk.String(),
			Similarity: c.Similarity,
			ClusterID:  c.ClusterID,
		}
	}
	return Evaluation{
		Clauses:          clauses,
		AverageRiskScore: ev.AverageRiskScore,
		OverallRisk:      ev.OverallRisk.String(),
		Mode:             ev.Mode,
	}
}
