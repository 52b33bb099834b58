// Package testdata holds labeled contract clauses for validating the
// keyword classifier.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed clauses.json
var clausesJSON []byte

// ClauseCase is a clause with the category and risk it must be assigned.
type ClauseCase struct {
	Text          string `json:"text"`
	ExpectedLabel string `json:"expected_label"`
	ExpectedRisk  string `json:"expected_risk"`
	Description   string `json:"description"`
}

// LoadClauses parses the embedded clauses.json and returns all cases.
func LoadClauses() ([]ClauseCase, error) {
	var cases []ClauseCase
	if err := json.Unmarshal(clausesJSON, &cases); err != nil {
		return nil, fmt.Errorf("parse clauses.json: %w", err)
	}
	return cases, nil
}
