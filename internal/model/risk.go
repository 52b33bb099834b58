package model

import (
	"fmt"
	"strings"
)

// RiskLevel is the severity attached to a clause category.
type RiskLevel int

const (
	RiskUnknown RiskLevel = iota // not supplied
	RiskLow
	RiskMedium
	RiskHigh
)

// String returns the canonical name ("Low", "Medium", "High").
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// Weight maps the level onto the 1..3 scale used for contract scoring.
// RiskUnknown weighs 0 and never reaches aggregation.
func (r RiskLevel) Weight() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of Low, Medium or High.
func (r RiskLevel) Valid() bool {
	return r >= RiskLow && r <= RiskHigh
}

// ParseRiskLevel parses a level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return RiskUnknown, fmt.Errorf("unknown risk level %q", s)
	}
}

// MarshalText encodes the level by name so artifacts and API output stay readable.
func (r RiskLevel) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot encode risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a level name.
func (r *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}
