package service

import (
	"fmt"
	"math"

	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// Normalizer rescales a raw score onto 0–100.
type Normalizer interface {
	Mode() valueobject.NormalizationMode
	Normalize(raw float64) float64
}

// NewNormalizer returns the strategy selected by cfg.Mode.
func NewNormalizer(cfg NormalizationConfig) (Normalizer, error) {
	switch {
	case cfg.Mode.Equal(valueobject.NormalizationMinMax):
		if !(cfg.Max > cfg.Min) {
			return nil, fmt.Errorf("%w: minmax bounds require max > min, got min=%v max=%v", ErrInvalidConfig, cfg.Min, cfg.Max)
		}
		return MinMaxNormalizer{Min: cfg.Min, Max: cfg.Max}, nil
	case cfg.Mode.Equal(valueobject.NormalizationLogistic):
		if !(cfg.K > 0) || math.IsInf(cfg.K, 0) || math.IsNaN(cfg.Midpoint) {
			return nil, fmt.Errorf("%w: logistic normalization requires k > 0, got k=%v", ErrInvalidConfig, cfg.K)
		}
		return LogisticNormalizer{K: cfg.K, Midpoint: cfg.Midpoint}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported normalization mode %q", ErrInvalidConfig, cfg.Mode.String())
	}
}

// MinMaxNormalizer clamps (raw-Min)/(Max-Min) to [0,1] and scales to 100.
type MinMaxNormalizer struct {
	Min float64
	Max float64
}

// Mode returns NormalizationMinMax.
func (MinMaxNormalizer) Mode() valueobject.NormalizationMode { return valueobject.NormalizationMinMax }

// Normalize implements Normalizer.
func (n MinMaxNormalizer) Normalize(raw float64) float64 {
	ratio := (raw - n.Min) / (n.Max - n.Min)
	return math.Min(math.Max(ratio, 0), 1) * 100
}

// LogisticNormalizer maps raw scores through 100 / (1 + e^(-K(raw-Midpoint))).
type LogisticNormalizer struct {
	K        float64
	Midpoint float64
}

// Mode returns NormalizationLogistic.
func (LogisticNormalizer) Mode() valueobject.NormalizationMode {
	return valueobject.NormalizationLogistic
}

// Normalize implements Normalizer.
func (n LogisticNormalizer) Normalize(raw float64) float64 {
	return 100 / (1 + math.Exp(-n.K*(raw-n.Midpoint)))
}
