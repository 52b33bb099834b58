package model

// TaxonomyEntry is one labeled cluster of the risk taxonomy.
type TaxonomyEntry struct {
	ClusterID   int       `json:"cluster_id"`
	Centroid    []float32 `json:"centroid"`
	Label       string    `json:"label"`
	Risk        RiskLevel `json:"risk_level"`
	MemberCount int       `json:"member_count"`
}
