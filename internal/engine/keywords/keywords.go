// Package keywords holds the ordered keyword tables shared by corpus
// ingestion, cluster labelling and the keyword fallback classifier.
package keywords

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/crimson-sun/covenant/internal/model"
)

// UnknownLabel is reported for text no rule matches.
const UnknownLabel = "Unknown"

// Rule maps a keyword set onto a category label and risk level.
type Rule struct {
	Keywords []string
	Label    string
	Risk     model.RiskLevel
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Table is an ordered list of rules. The first rule with a whole-word,
// case-insensitive keyword hit wins. A Table is immutable and safe for
// concurrent use.
type Table struct {
	rules []compiledRule
}

// NewTable compiles rules in order.
func NewTable(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("keywords: empty rule table")
	}
	t := &Table{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if r.Label == "" {
			return nil, fmt.Errorf("keywords: rule %d has no label", i)
		}
		if !r.Risk.Valid() {
			return nil, fmt.Errorf("keywords: rule %d (%s) has invalid risk level", i, r.Label)
		}
		re, err := wordPattern(r.Keywords)
		if err != nil {
			return nil, fmt.Errorf("keywords: rule %d (%s): %w", i, r.Label, err)
		}
		t.rules = append(t.rules, compiledRule{Rule: r, re: re})
	}
	return t, nil
}

// Match returns the first rule matching text.
func (t *Table) Match(text string) (Rule, bool) {
	lower := strings.ToLower(text)
	for _, r := range t.rules {
		if r.re.MatchString(lower) {
			return r.Rule, true
		}
	}
	return Rule{Label: UnknownLabel, Risk: model.RiskLow}, false
}

// InferRisk returns the risk of the first matching rule, or Low.
func (t *Table) InferRisk(text string) model.RiskLevel {
	r, _ := t.Match(text)
	return r.Risk
}

// Rules returns a copy of the table's rules in match order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.Rule
	}
	return out
}

// wordPattern builds one alternation that only matches whole words.
func wordPattern(keywords []string) (*regexp.Regexp, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords")
	}
	alts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return nil, fmt.Errorf("blank keyword")
		}
		alts = append(alts, regexp.QuoteMeta(kw))
	}
	return regexp.Compile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
}
