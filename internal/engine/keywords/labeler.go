package keywords

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// GeneralLabel is assigned to clusters no category keyword matches.
const GeneralLabel = "General / Miscellaneous"

// Category is a named keyword set used to label clusters.
type Category struct {
	Name     string
	Keywords []string
}

// Labeler names clusters from the concatenated text of their members.
type Labeler struct {
	names    []string
	patterns []*regexp.Regexp
}

// NewLabeler compiles categories in order. Categories without keywords never
// match and are skipped.
func NewLabeler(categories []Category) (*Labeler, error) {
	l := &Labeler{}
	for _, c := range categories {
		if len(c.Keywords) == 0 {
			continue
		}
		re, err := wordPattern(c.Keywords)
		if err != nil {
			return nil, err
		}
		l.names = append(l.names, titleCase(c.Name))
		l.patterns = append(l.patterns, re)
	}
	return l, nil
}

// Label returns the first category whose keywords occur in texts joined by
// spaces and lowercased, or GeneralLabel.
func (l *Labeler) Label(texts []string) string {
	joined := strings.ToLower(strings.Join(texts, " "))
	for i, re := range l.patterns {
		if re.MatchString(joined) {
			return l.names[i]
		}
	}
	return GeneralLabel
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// DefaultCategories is the built-in cluster naming table.
func DefaultCategories() []Category {
	return []Category{
		{"confidentiality", []string{"confidential", "nda", "non-disclosure", "privacy", "secret", "proprietary information", "sensitive", "data", "information sharing"}},
		{"liability", []string{"liability", "indemnity", "indemnification", "damages", "loss", "responsibility", "hold harmless"}},
		{"termination", []string{"terminate", "termination", "breach", "cancel", "expiry", "suspend", "notice period"}},
		{"payment", []string{"payment", "invoice", "fees", "billing", "charges", "price", "compensation", "cost"}},
		{"governing law", []string{"jurisdiction", "law", "governing", "arbitration", "venue", "court", "dispute", "applicable law"}},
		{"data protection", []string{"gdpr", "data", "security", "processing", "breach", "information security"}},
		{"intellectual property", []string{"intellectual", "ip", "patent", "copyright", "ownership", "license"}},
		{"representations", []string{"representation", "warranty", "guarantee", "assure", "certify"}},
		{"force majeure", []string{"force majeure", "act of god", "disaster", "pandemic", "unforeseeable"}},
		{"audit", []string{"audit", "inspection", "verify", "examination", "records"}},
		{"compliance", []string{"compliance", "regulation", "policy", "standards"}},
		{"insurance", []string{"insurance", "coverage", "insured", "policy"}},
		{"assignment", []string{"assign", "transfer", "delegate", "successor"}},
		{"dispute resolution", []string{"dispute", "arbitration", "litigation", "mediation", "settlement"}},
		{"miscellaneous", nil},
	}
}

var defaultLabeler = func() *Labeler {
	l, err := NewLabeler(DefaultCategories())
	if err != nil {
		panic(err)
	}
	return l
}()

// DefaultLabeler returns the compiled built-in labeler.
func DefaultLabeler() *Labeler { return defaultLabeler }
