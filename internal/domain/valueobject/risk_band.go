package valueobject

import (
	"fmt"
	"strings"
)

// RiskBand is an immutable value object representing the categorical risk of
// a scored transaction.
type RiskBand struct {
	value string
}

var (
	RiskBandLow    = RiskBand{value: "LOW"}
	RiskBandMedium = RiskBand{value: "MEDIUM"}
	RiskBandHigh   = RiskBand{value: "HIGH"}
)

// RiskBandFromString reconstructs a RiskBand from its string representation.
// Both the code ("HIGH") and the report label ("High Risk") are accepted.
func RiskBandFromString(s string) (RiskBand, error) {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), " RISK") {
	case "LOW":
		return RiskBandLow, nil
	case "MEDIUM":
		return RiskBandMedium, nil
	case "HIGH":
		return RiskBandHigh, nil
	default:
		return RiskBand{}, fmt.Errorf("invalid risk band: %s", s)
	}
}

// String returns the string representation.
func (b RiskBand) String() string {
	return b.value
}

// Label returns the human-readable report label, e.g. "High Risk".
func (b RiskBand) Label() string {
	switch b.value {
	case "LOW":
		return "Low Risk"
	case "MEDIUM":
		return "Medium Risk"
	case "HIGH":
		return "High Risk"
	default:
		return ""
	}
}

// Rank orders bands by severity: LOW=1, MEDIUM=2, HIGH=3, unset=0.
func (b RiskBand) Rank() int {
	switch b.value {
	case "LOW":
		return 1
	case "MEDIUM":
		return 2
	case "HIGH":
		return 3
	default:
		return 0
	}
}

// IsZero returns true if the RiskBand has not been set.
func (b RiskBand) IsZero() bool {
	return b.value == ""
}

// Equal checks equality with another RiskBand.
func (b RiskBand) Equal(other RiskBand) bool {
	return b.value == other.value
}

// BandThresholds holds the inclusive lower bounds of the Medium and High
// bands on the 0–100 normalized scale.
type BandThresholds struct {
	Medium float64
	High   float64
}

// DefaultBandThresholds returns the reference thresholds (41 / 71).
func DefaultBandThresholds() BandThresholds {
	return BandThresholds{Medium: 41, High: 71}
}

// Validate checks 0 <= Medium < High <= 100.
func (t BandThresholds) Validate() error {
	if t.Medium < 0 || t.High > 100 || t.Medium >= t.High {
		return fmt.Errorf("band thresholds must satisfy 0 <= medium < high <= 100, got medium=%v high=%v", t.Medium, t.High)
	}
	return nil
}

// Band maps a normalized score to its RiskBand.
func (t BandThresholds) Band(score float64) RiskBand {
	switch {
	case score >= t.High:
		return RiskBandHigh
	case score >= t.Medium:
		return RiskBandMedium
	default:
		return RiskBandLow
	}
}
