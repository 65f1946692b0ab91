package service

import "strings"

// CountryRiskTable maps a country code to its risk weight. It is immutable
// after construction and safe for concurrent use.
type CountryRiskTable struct {
	weights map[string]int
}

// NewCountryRiskTable copies weights into a new table. Codes are matched
// case-insensitively.
func NewCountryRiskTable(weights map[string]int) *CountryRiskTable {
	t := &CountryRiskTable{weights: make(map[string]int, len(weights))}
	for code, w := range weights {
		t.weights[normalizeCountry(code)] = w
	}
	return t
}

// Weight returns the risk weight of code, or 0 for unknown and empty codes.
func (t *CountryRiskTable) Weight(code string) int {
	if t == nil {
		return 0
	}
	return t.weights[normalizeCountry(code)]
}

// Len returns the number of configured countries.
func (t *CountryRiskTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.weights)
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// countrySet builds a set of normalized, non-empty country codes.
func countrySet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if n := normalizeCountry(c); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
