package keywords

import "github.com/crimson-sun/covenant/internal/model"

// DefaultRules is the built-in severity table. Higher-severity rules come
// first so a clause mentioning both indemnity and notice is scored by the
// indemnity.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"unlimited liability", "uncapped liability"}, Label: "Liability", Risk: model.RiskHigh},
		{Keywords: []string{"indemnify", "indemnifies", "indemnification", "indemnity", "hold harmless"}, Label: "Indemnification", Risk: model.RiskHigh},
		{Keywords: []string{"liability", "liable"}, Label: "Liability", Risk: model.RiskHigh},
		{Keywords: []string{"liquidated damages", "penalty", "penalties", "damages"}, Label: "Penalties", Risk: model.RiskHigh},
		{Keywords: []string{"non-compete", "non-competition", "non-solicitation", "exclusivity"}, Label: "Restrictive Covenants", Risk: model.RiskHigh},
		{Keywords: []string{"confidential", "confidentiality", "non-disclosure", "nda", "proprietary information", "trade secret"}, Label: "Confidentiality", Risk: model.RiskMedium},
		{Keywords: []string{"terminate", "terminates", "terminated", "termination"}, Label: "Termination", Risk: model.RiskMedium},
		{Keywords: []string{"personal data", "data protection", "gdpr", "privacy"}, Label: "Data Protection", Risk: model.RiskMedium},
		{Keywords: []string{"payment", "payments", "fees", "invoice", "invoices"}, Label: "Payment", Risk: model.RiskMedium},
		{Keywords: []string{"intellectual property", "patent", "patents", "copyright", "license", "licence"}, Label: "Intellectual Property", Risk: model.RiskMedium},
		{Keywords: []string{"assign", "assignment", "change of control"}, Label: "Assignment", Risk: model.RiskMedium},
		{Keywords: []string{"warranty", "warranties", "warrants", "representations"}, Label: "Warranties", Risk: model.RiskMedium},
		{Keywords: []string{"obligation", "obligations", "compliance"}, Label: "Obligations", Risk: model.RiskMedium},
		{Keywords: []string{"governing law", "jurisdiction", "venue"}, Label: "Governing Law", Risk: model.RiskLow},
		{Keywords: []string{"arbitration", "mediation", "dispute", "disputes"}, Label: "Dispute Resolution", Risk: model.RiskLow},
		{Keywords: []string{"force majeure", "act of god"}, Label: "Force Majeure", Risk: model.RiskLow},
		{Keywords: []string{"insurance", "insured"}, Label: "Insurance", Risk: model.RiskLow},
		{Keywords: []string{"audit", "inspection", "records"}, Label: "Audit", Risk: model.RiskLow},
		{Keywords: []string{"notice", "notices"}, Label: "Notices", Risk: model.RiskLow},
	}
}

var defaultTable = mustTable(DefaultRules())

// Default returns the compiled built-in table.
func Default() *Table { return defaultTable }

func mustTable(rules []Rule) *Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(err)
	}
	return t
}
