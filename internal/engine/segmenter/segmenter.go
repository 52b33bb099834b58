// Package segmenter cuts contract text into clause-sized units.
package segmenter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/crimson-sun/covenant/internal/model"
)

// MinClauseLen is the shortest fragment, in runes, kept as a clause.
const MinClauseLen = 9

var terminal = regexp.MustCompile(`[.!?]+`)

// Segmenter splits text on sentence-terminal punctuation. The split is
// deliberately crude: it fixes the unit of evaluation, not grammar.
type Segmenter struct {
	minLen int
}

// New creates a Segmenter that drops fragments shorter than minLen runes.
// A non-positive minLen selects MinClauseLen.
func New(minLen int) *Segmenter {
	if minLen <= 0 {
		minLen = MinClauseLen
	}
	return &Segmenter{minLen: minLen}
}

// Segment returns the surviving clauses in text order. It fails with
// model.ErrNoClausesFound when nothing survives.
func (s *Segmenter) Segment(text string) ([]model.ClauseUnit, error) {
	var units []model.ClauseUnit
	for _, frag := range terminal.Split(text, -1) {
		frag = strings.Join(strings.Fields(frag), " ")
		if utf8.RuneCountInString(frag) < s.minLen {
			continue
		}
		units = append(units, model.ClauseUnit{Text: frag, Ordinal: len(units)})
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("segmenter: %w", model.ErrNoClausesFound)
	}
	return units, nil
}
