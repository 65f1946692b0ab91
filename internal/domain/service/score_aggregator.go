package service

import (
	"fmt"
	"sort"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// Aggregator turns an indicator vector into a raw score, a normalized score
// and a risk band.
type Aggregator struct {
	normalizer Normalizer
	weights    map[string]float64
	codes      []string
	bands      valueobject.BandThresholds
}

// NewAggregator validates the weights, normalization and bands.
func NewAggregator(weights map[string]float64, norm NormalizationConfig, bands valueobject.BandThresholds) (*Aggregator, error) {
	normalizer, err := NewNormalizer(norm)
	if err != nil {
		return nil, err
	}
	if err := bands.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	a := &Aggregator{
		normalizer: normalizer,
		weights:    make(map[string]float64, len(weights)),
		bands:      bands,
	}
	for code, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: weight of %s must not be negative, got %v", ErrInvalidConfig, code, w)
		}
		if model.IsSubScore(code) {
			return nil, fmt.Errorf("%w: sub-score %s cannot be weighted", ErrInvalidConfig, code)
		}
		a.weights[code] = w
		a.codes = append(a.codes, code)
	}
	sort.Strings(a.codes)
	return a, nil
}

// Mode returns the configured normalization mode.
func (a *Aggregator) Mode() valueobject.NormalizationMode {
	return a.normalizer.Mode()
}

// RawScore is the weighted sum of the flags plus every continuous sub-score,
// each added once and unweighted.
func (a *Aggregator) RawScore(v model.IndicatorVector) float64 {
	raw := 0.0
	for _, code := range a.codes {
		raw += a.weights[code] * v[code]
	}
	for code, val := range v {
		if model.IsSubScore(code) {
			raw += val
		}
	}
	return raw
}

// Aggregate scores v.
func (a *Aggregator) Aggregate(v model.IndicatorVector) model.ScoreResult {
	raw := a.RawScore(v)
	normalized := a.normalizer.Normalize(raw)
	return model.ScoreResult{
		RawScore:        raw,
		NormalizedScore: normalized,
		RiskBand:        a.bands.Band(normalized),
	}
}
