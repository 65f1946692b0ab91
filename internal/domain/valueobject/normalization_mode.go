package valueobject

import (
	"fmt"
	"strings"
)

// NormalizationMode selects how a raw score is rescaled to 0–100.
type NormalizationMode struct {
	value string
}

var (
	NormalizationMinMax   = NormalizationMode{value: "minmax"}
	NormalizationLogistic = NormalizationMode{value: "logistic"}
)

// NormalizationModeFromString parses a configured mode. Anything other than
// "minmax" or "logistic" is an error; there is no fallback.
func NormalizationModeFromString(s string) (NormalizationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minmax":
		return NormalizationMinMax, nil
	case "logistic":
		return NormalizationLogistic, nil
	default:
		return NormalizationMode{}, fmt.Errorf("unsupported normalization mode: %q", s)
	}
}

// String returns the string representation.
func (m NormalizationMode) String() string {
	return m.value
}

// IsZero returns true if the mode has not been set.
func (m NormalizationMode) IsZero() bool {
	return m.value == ""
}

// Equal checks equality with another NormalizationMode.
func (m NormalizationMode) Equal(other NormalizationMode) bool {
	return m.value == other.value
}
