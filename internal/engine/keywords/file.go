package keywords

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/covenant/internal/model"
)

// ruleFile is the on-disk shape of a replacement rule table:
//
//	rules:
//	  - label: Confidentiality
//	    risk: Medium
//	    keywords: [confidential, nda]
type ruleFile struct {
	Rules []struct {
		Label    string   `yaml:"label"`
		Risk     string   `yaml:"risk"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"rules"`
}

// LoadFile reads a YAML rule table. The rules replace the built-in table
// entirely; order in the file is match order.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("keywords: parse %s: %w", path, err)
	}
	rules := make([]Rule, 0, len(rf.Rules))
	for i, r := range rf.Rules {
		risk, err := model.ParseRiskLevel(r.Risk)
		if err != nil {
			return nil, fmt.Errorf("keywords: rule %d: %w", i, err)
		}
		rules = append(rules, Rule{Keywords: r.Keywords, Label: r.Label, Risk: risk})
	}
	return NewTable(rules)
}
