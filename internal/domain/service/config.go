package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// ErrInvalidConfig is returned when an engine cannot be built from its
// configuration. Callers treat it as fatal at startup.
var ErrInvalidConfig = errors.New("invalid scoring configuration")

// ScalingBand scales the foreign-country sub-score for accounts whose prior
// country history holds at most MaxPriorCountries distinct countries.
type ScalingBand struct {
	MaxPriorCountries int
	Factor            float64
}

// IndicatorConfig enumerates every threshold and window used by the
// indicator catalog.
type IndicatorConfig struct {
	Location              *time.Location
	NewPayeeAmount        decimal.Decimal
	DigitalChannelAmount  decimal.Decimal
	LowHistoryAmount      decimal.Decimal
	HighValueAmount       decimal.Decimal
	NightHours            []int
	WeekendDays           []time.Weekday
	DigitalChannels       []string
	HighRiskCountries     []string
	CountryScaling        []ScalingBand
	DeviationMultiplier   float64
	DormantDays           float64
	BurstCount            float64
	NewAccountAgeDays     float64
	NewAccountTxnCount    float64
	YoungAccountAgeDays   float64
	YoungAccountTxnCount  float64
	PayeeFanOut           float64
	LowHistoryUsage       float64
	LargeTxnCluster       float64
	DailyVolumeAmount     float64
	CountryScalingDefault float64
	RapidInterval         time.Duration
}

// NormalizationConfig selects and parameterises the normalization strategy.
type NormalizationConfig struct {
	Mode     valueobject.NormalizationMode
	Min      float64
	Max      float64
	K        float64
	Midpoint float64
}

// EngineConfig is the complete configuration of a scoring engine.
type EngineConfig struct {
	CountryRisk   map[string]int
	Weights       map[string]float64
	Indicators    IndicatorConfig
	Normalization NormalizationConfig
	Bands         valueobject.BandThresholds
	Lookback      time.Duration
}

// DefaultIndicatorConfig returns the reference thresholds.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		Location:             time.UTC,
		DeviationMultiplier:  2,
		NightHours:           []int{0, 1, 2, 3, 4, 5},
		WeekendDays:          []time.Weekday{time.Saturday, time.Sunday},
		NewPayeeAmount:       decimal.NewFromInt(10000),
		DormantDays:          30,
		BurstCount:           4,
		NewAccountAgeDays:    3,
		NewAccountTxnCount:   3,
		YoungAccountAgeDays:  7,
		YoungAccountTxnCount: 2,
		PayeeFanOut:          3,
		DigitalChannels:      []string{"mobile", "web"},
		DigitalChannelAmount: decimal.NewFromInt(5000),
		LowHistoryUsage:      2,
		LowHistoryAmount:     decimal.NewFromInt(7000),
		HighRiskCountries:    []string{"IR", "RU", "NG", "CN", "KP"},
		LargeTxnCluster:      2,
		RapidInterval:        time.Minute,
		DailyVolumeAmount:    50000,
		HighValueAmount:      decimal.NewFromInt(100000),
		CountryScaling: []ScalingBand{
			{MaxPriorCountries: 2, Factor: 1.2},
			{MaxPriorCountries: 5, Factor: 1.0},
		},
		CountryScalingDefault: 0.5,
	}
}

// DefaultCountryRisk returns the reference country risk weights.
func DefaultCountryRisk() map[string]int {
	return map[string]int{
		"USA": 5, "UK": 5, "ARGENTINA": 10, "BRAZIL": 20, "NIGERIA": 30,
		"RUSSIA": 30, "CN": 25, "IR": 30, "NG": 30, "KP": 30,
	}
}

// ScorecardWeights is the integer weight set used with minmax bounds 0..260.
func ScorecardWeights() map[string]float64 {
	return map[string]float64{
		"KI01": 20, "KI02": 10, "KI03": 30, "KI04": 25, "KI05": 40,
		"KI06": 25, "KI07": 15, "KI08": 15, "KI09": 10, "KI10": 15,
		"KI11": 20, "KI12": 15, "KI13": 10, "KI14": 20, "KI15": 20,
		"KI16": 5, "KI18": 10, "KI19": 30,
	}
}

// PipelineWeights is the fractional weight set used with minmax bounds 0..20.
// The pipeline's daily volume rule is catalogued as KI15, so its 2.0 weight
// goes there and burst activity (KI04) stays unweighted.
func PipelineWeights() map[string]float64 {
	return map[string]float64{
		"KI01": 2.0, "KI02": 1.5, "KI03": 2.0, "KI05": 1.5, "KI06": 2.0,
		"KI07": 1.5, "KI08": 1.5, "KI09": 1.5, "KI10": 1.5, "KI11": 2.0,
		"KI12": 2.0, "KI14": 2.0, "KI15": 2.0, "KI18": 1.0, "KI19": 2.0,
	}
}

// PipelineEngineConfig returns the pipeline configuration: pipeline weights,
// minmax over 0..20 and a 5000 low-history payee amount.
func PipelineEngineConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.Weights = PipelineWeights()
	cfg.Normalization.Max = 20
	cfg.Indicators.LowHistoryAmount = decimal.NewFromInt(5000)
	return cfg
}

// DefaultEngineConfig returns the scorecard configuration: scorecard
// weights, minmax over 0..260 and bands at 41/71.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CountryRisk: DefaultCountryRisk(),
		Weights:     ScorecardWeights(),
		Indicators:  DefaultIndicatorConfig(),
		Normalization: NormalizationConfig{
			Mode:     valueobject.NormalizationMinMax,
			Min:      0,
			Max:      260,
			K:        0.1,
			Midpoint: 5,
		},
		Bands:    valueobject.DefaultBandThresholds(),
		Lookback: 2 * time.Hour,
	}
}

// Validate reports every configuration problem that would make scoring
// ill-defined.
func (c EngineConfig) Validate() error {
	if len(c.Weights) == 0 {
		return fmt.Errorf("%w: at least one indicator weight is required", ErrInvalidConfig)
	}
	for code, w := range c.Weights {
		if _, ok := lookupIndicator(code); !ok {
			return fmt.Errorf("%w: unknown indicator %q", ErrInvalidConfig, code)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight of %s must not be negative, got %v", ErrInvalidConfig, code, w)
		}
	}
	for code, risk := range c.CountryRisk {
		if risk < 0 {
			return fmt.Errorf("%w: country risk of %s must not be negative, got %d", ErrInvalidConfig, code, risk)
		}
	}
	if err := c.Indicators.validate(); err != nil {
		return err
	}
	if _, err := NewNormalizer(c.Normalization); err != nil {
		return err
	}
	if err := c.Bands.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Lookback < 0 {
		return fmt.Errorf("%w: lookback must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c IndicatorConfig) validate() error {
	for _, h := range c.NightHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: night hour %d out of range 0-23", ErrInvalidConfig, h)
		}
	}
	if c.DeviationMultiplier < 0 {
		return fmt.Errorf("%w: deviation multiplier must not be negative", ErrInvalidConfig)
	}
	if c.CountryScalingDefault < 0 {
		return fmt.Errorf("%w: default country scaling must not be negative", ErrInvalidConfig)
	}
	prev := -1
	for _, band := range c.CountryScaling {
		if band.MaxPriorCountries <= prev {
			return fmt.Errorf("%w: country scaling bands must be strictly ascending", ErrInvalidConfig)
		}
		if band.Factor < 0 {
			return fmt.Errorf("%w: country scaling factor must not be negative", ErrInvalidConfig)
		}
		prev = band.MaxPriorCountries
	}
	if c.RapidInterval < 0 {
		return fmt.Errorf("%w: rapid interval must not be negative", ErrInvalidConfig)
	}
	return nil
}
