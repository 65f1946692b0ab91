package model

import (
	"sort"
	"strings"
)

// SubScoreSuffix marks continuous entries of an IndicatorVector.
const SubScoreSuffix = "_score"

// IndicatorVector maps indicator codes to their values: 0/1 for flags and a
// non-negative magnitude for continuous sub-scores.
type IndicatorVector map[string]float64

// IsSubScore reports whether code names a continuous sub-score.
func IsSubScore(code string) bool {
	return strings.HasSuffix(code, SubScoreSuffix)
}

// Triggered returns the sorted codes of flags that fired.
func (v IndicatorVector) Triggered() []string {
	codes := make([]string, 0, len(v))
	for code, val := range v {
		if val != 0 && !IsSubScore(code) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
