package model

// ClauseRecord is one labeled clause from the training corpus.
type ClauseRecord struct {
	Text             string
	SourceDocumentID string
	Category         string    // corpus-provided coarse label, may be empty
	Risk             RiskLevel // RiskUnknown when the corpus gave none
}

// ClauseUnit is a clause cut from request text.
type ClauseUnit struct {
	Text    string
	Ordinal int // zero-based position within the contract
}

// ClauseEvaluation is the classification of a single clause.
type ClauseEvaluation struct {
	ClauseText string    `json:"clause_text"`
	Label      string    `json:"matched_label"`
	Risk       RiskLevel `json:"risk_level"`
	Similarity float64   `json:"similarity_score"`
	ClusterID  int       `json:"cluster_id"` // -1 when no cluster was matched
}

// Evaluation modes, reported on ContractEvaluation.Mode.
const (
	ModeEmbedding = "embedding"
	ModeKeyword   = "keyword"
)

// ContractEvaluation aggregates clause results for a whole contract.
type ContractEvaluation struct {
	Clauses          []ClauseEvaluation `json:"clause_evaluations"`
	AverageRiskScore float64            `json:"average_risk_score"`
	OverallRisk      RiskLevel          `json:"overall_risk_level"`
	Mode             string             `json:"mode"`
}
