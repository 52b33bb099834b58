package classifier

import (
	"fmt"

	"github.com/crimson-sun/covenant/internal/model"
)

// Overall risk thresholds on the average clause weight, in hundredths.
const (
	lowCeiling    = 150
	mediumCeiling = 230
)

// Aggregate folds clause evaluations into a contract verdict. The average
// weight (Low 1, Medium 2, High 3) is rounded half away from zero to two
// decimals before the thresholds are applied: at most 1.5 is Low, at most
// 2.3 is Medium, anything above is High.
func Aggregate(clauses []model.ClauseEvaluation) (model.ContractEvaluation, error) {
	if len(clauses) == 0 {
		return model.ContractEvaluation{}, fmt.Errorf("classifier: %w", model.ErrNoClausesFound)
	}
	sum := 0
	for i, c := range clauses {
		w := c.Risk.Weight()
		if w == 0 {
			return model.ContractEvaluation{}, fmt.Errorf("classifier: %w: clause %d has no risk level",
				model.ErrEvaluationFailed, i)
		}
		sum += w
	}

	// Integer hundredths: round(100*sum/n) with halves rounded up, all positive.
	n := len(clauses)
	centi := (200*sum + n) / (2 * n)
	avg := float64(centi) / 100

	overall := model.RiskHigh
	switch {
	case centi <= lowCeiling:
		overall = model.RiskLow
	case centi <= mediumCeiling:
		overall = model.RiskMedium
	}

	return model.ContractEvaluation{
		Clauses:          clauses,
		AverageRiskScore: avg,
		OverallRisk:      overall,
	}, nil
}
