package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/fraudscore/internal/domain/service"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// Scoring presets.
const (
	PresetScorecard = "scorecard"
	PresetPipeline  = "pipeline"
)

// ScoringFile is the YAML form of the scoring configuration. Every field is
// optional; omitted fields keep the value of the selected preset. Weight and
// country-risk maps are merged over the preset.
type ScoringFile struct {
	Weights       map[string]float64   `yaml:"weights" validate:"dive,keys,startswith=KI,endkeys,gte=0"`
	CountryRisk   map[string]int       `yaml:"country_risk" validate:"dive,keys,required,endkeys,gte=0"`
	Preset        string               `yaml:"preset" validate:"omitempty,oneof=scorecard pipeline"`
	Indicators    IndicatorSection     `yaml:"indicators"`
	Normalization NormalizationSection `yaml:"normalization"`
	Bands         BandSection          `yaml:"bands"`
	Lookback      time.Duration        `yaml:"lookback" validate:"gte=0"`
}

// NormalizationSection configures raw score normalization.
type NormalizationSection struct {
	Mode     string  `yaml:"mode" validate:"required,oneof=minmax logistic"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max" validate:"gtfield=Min"`
	K        float64 `yaml:"k" validate:"gt=0"`
	Midpoint float64 `yaml:"midpoint"`
}

// BandSection holds the inclusive lower bounds of the Medium and High bands.
type BandSection struct {
	Medium float64 `yaml:"medium" validate:"gte=0,lte=100"`
	High   float64 `yaml:"high" validate:"gtfield=Medium,lte=100"`
}

// ScalingSection is one step of the foreign-country scaling table.
type ScalingSection struct {
	MaxPriorCountries int     `yaml:"max_prior_countries" validate:"gte=0"`
	Factor            float64 `yaml:"factor" validate:"gte=0"`
}

// IndicatorSection holds the indicator thresholds.
type IndicatorSection struct {
	NewPayeeAmount        decimal.Decimal  `yaml:"new_payee_amount"`
	DigitalChannelAmount  decimal.Decimal  `yaml:"digital_channel_amount"`
	LowHistoryAmount      decimal.Decimal  `yaml:"low_history_amount"`
	HighValueAmount       decimal.Decimal  `yaml:"high_value_amount"`
	Timezone              string           `yaml:"timezone" validate:"required"`
	NightHours            []int            `yaml:"night_hours" validate:"dive,gte=0,lte=23"`
	WeekendDays           []string         `yaml:"weekend_days"`
	DigitalChannels       []string         `yaml:"digital_channels"`
	HighRiskCountries     []string         `yaml:"high_risk_countries"`
	CountryScaling        []ScalingSection `yaml:"country_scaling" validate:"dive"`
	DeviationMultiplier   float64          `yaml:"deviation_multiplier" validate:"gte=0"`
	DormantDays           float64          `yaml:"dormant_days" validate:"gte=0"`
	BurstCount            float64          `yaml:"burst_count" validate:"gte=0"`
	NewAccountAgeDays     float64          `yaml:"new_account_age_days" validate:"gte=0"`
	NewAccountTxnCount    float64          `yaml:"new_account_txn_count" validate:"gte=0"`
	YoungAccountAgeDays   float64          `yaml:"young_account_age_days" validate:"gte=0"`
	YoungAccountTxnCount  float64          `yaml:"young_account_txn_count" validate:"gte=0"`
	PayeeFanOut           float64          `yaml:"payee_fan_out" validate:"gte=0"`
	LowHistoryUsage       float64          `yaml:"low_history_usage" validate:"gte=0"`
	LargeTxnCluster       float64          `yaml:"large_txn_cluster" validate:"gte=0"`
	DailyVolumeAmount     float64          `yaml:"daily_volume_amount" validate:"gte=0"`
	CountryScalingDefault float64          `yaml:"country_scaling_default" validate:"gte=0"`
	RapidInterval         time.Duration    `yaml:"rapid_interval" validate:"gte=0"`
}

// PresetFile returns the scoring file of a named preset. An empty name
// selects the scorecard preset.
func PresetFile(preset string) (ScoringFile, error) {
	cfg := service.DefaultEngineConfig()
	switch preset {
	case "", PresetScorecard:
		preset = PresetScorecard
	case PresetPipeline:
		cfg = service.PipelineEngineConfig()
	default:
		return ScoringFile{}, fmt.Errorf("%w: unknown preset %q", service.ErrInvalidConfig, preset)
	}
	f := fromEngineConfig(cfg)
	f.Preset = preset
	return f, nil
}

// LoadScoring reads the scoring configuration at path over its preset. An
// empty path yields the scorecard preset.
func LoadScoring(path string) (service.EngineConfig, error) {
	if path == "" {
		f, _ := PresetFile(PresetScorecard)
		return f.EngineConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return service.EngineConfig{}, fmt.Errorf("failed to read scoring config: %w", err)
	}
	return ParseScoring(data)
}

// ParseScoring decodes a YAML scoring document.
func ParseScoring(data []byte) (service.EngineConfig, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return service.EngineConfig{}, fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	f, err := PresetFile(head.Preset)
	if err != nil {
		return service.EngineConfig{}, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return service.EngineConfig{}, fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	return f.EngineConfig()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// EngineConfig validates f and converts it to the domain configuration.
func (f ScoringFile) EngineConfig() (service.EngineConfig, error) {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return service.EngineConfig{}, fmt.Errorf("%w: %s failed %q", service.ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return service.EngineConfig{}, fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}

	mode, err := valueobject.NormalizationModeFromString(f.Normalization.Mode)
	if err != nil {
		return service.EngineConfig{}, fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	indicators, err := f.Indicators.toDomain()
	if err != nil {
		return service.EngineConfig{}, err
	}

	cfg := service.EngineConfig{
		Weights:     f.Weights,
		CountryRisk: f.CountryRisk,
		Indicators:  indicators,
		Normalization: service.NormalizationConfig{
			Mode:     mode,
			Min:      f.Normalization.Min,
			Max:      f.Normalization.Max,
			K:        f.Normalization.K,
			Midpoint: f.Normalization.Midpoint,
		},
		Bands:    valueobject.BandThresholds{Medium: f.Bands.Medium, High: f.Bands.High},
		Lookback: f.Lookback,
	}
	if err := cfg.Validate(); err != nil {
		return service.EngineConfig{}, err
	}
	return cfg, nil
}

func (s IndicatorSection) toDomain() (service.IndicatorConfig, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return service.IndicatorConfig{}, fmt.Errorf("%w: timezone %q: %v", service.ErrInvalidConfig, s.Timezone, err)
	}
	for name, amount := range map[string]decimal.Decimal{
		"new_payee_amount":       s.NewPayeeAmount,
		"digital_channel_amount": s.DigitalChannelAmount,
		"low_history_amount":     s.LowHistoryAmount,
		"high_value_amount":      s.HighValueAmount,
	} {
		if amount.IsNegative() {
			return service.IndicatorConfig{}, fmt.Errorf("%w: %s must not be negative", service.ErrInvalidConfig, name)
		}
	}

	weekend := make([]time.Weekday, 0, len(s.WeekendDays))
	for _, name := range s.WeekendDays {
		day, ok := parseWeekday(name)
		if !ok {
			return service.IndicatorConfig{}, fmt.Errorf("%w: unknown weekday %q", service.ErrInvalidConfig, name)
		}
		weekend = append(weekend, day)
	}
	scaling := make([]service.ScalingBand, 0, len(s.CountryScaling))
	for _, band := range s.CountryScaling {
		scaling = append(scaling, service.ScalingBand{MaxPriorCountries: band.MaxPriorCountries, Factor: band.Factor})
	}

	return service.IndicatorConfig{
		Location:              loc,
		NewPayeeAmount:        s.NewPayeeAmount,
		DigitalChannelAmount:  s.DigitalChannelAmount,
		LowHistoryAmount:      s.LowHistoryAmount,
		HighValueAmount:       s.HighValueAmount,
		NightHours:            s.NightHours,
		WeekendDays:           weekend,
		DigitalChannels:       s.DigitalChannels,
		HighRiskCountries:     s.HighRiskCountries,
		CountryScaling:        scaling,
		DeviationMultiplier:   s.DeviationMultiplier,
		DormantDays:           s.DormantDays,
		BurstCount:            s.BurstCount,
		NewAccountAgeDays:     s.NewAccountAgeDays,
		NewAccountTxnCount:    s.NewAccountTxnCount,
		YoungAccountAgeDays:   s.YoungAccountAgeDays,
		YoungAccountTxnCount:  s.YoungAccountTxnCount,
		PayeeFanOut:           s.PayeeFanOut,
		LowHistoryUsage:       s.LowHistoryUsage,
		LargeTxnCluster:       s.LargeTxnCluster,
		DailyVolumeAmount:     s.DailyVolumeAmount,
		CountryScalingDefault: s.CountryScalingDefault,
		RapidInterval:         s.RapidInterval,
	}, nil
}

func fromEngineConfig(cfg service.EngineConfig) ScoringFile {
	ind := cfg.Indicators
	weekend := make([]string, 0, len(ind.WeekendDays))
	for _, d := range ind.WeekendDays {
		weekend = append(weekend, strings.ToLower(d.String()))
	}
	scaling := make([]ScalingSection, 0, len(ind.CountryScaling))
	for _, band := range ind.CountryScaling {
		scaling = append(scaling, ScalingSection{MaxPriorCountries: band.MaxPriorCountries, Factor: band.Factor})
	}

	return ScoringFile{
		Weights:     cfg.Weights,
		CountryRisk: cfg.CountryRisk,
		Normalization: NormalizationSection{
			Mode:     cfg.Normalization.Mode.String(),
			Min:      cfg.Normalization.Min,
			Max:      cfg.Normalization.Max,
			K:        cfg.Normalization.K,
			Midpoint: cfg.Normalization.Midpoint,
		},
		Bands:    BandSection{Medium: cfg.Bands.Medium, High: cfg.Bands.High},
		Lookback: cfg.Lookback,
		Indicators: IndicatorSection{
			Timezone:              ind.Location.String(),
			NewPayeeAmount:        ind.NewPayeeAmount,
			DigitalChannelAmount:  ind.DigitalChannelAmount,
			LowHistoryAmount:      ind.LowHistoryAmount,
			HighValueAmount:       ind.HighValueAmount,
			NightHours:            ind.NightHours,
			WeekendDays:           weekend,
			DigitalChannels:       ind.DigitalChannels,
			HighRiskCountries:     ind.HighRiskCountries,
			CountryScaling:        scaling,
			DeviationMultiplier:   ind.DeviationMultiplier,
			DormantDays:           ind.DormantDays,
			BurstCount:            ind.BurstCount,
			NewAccountAgeDays:     ind.NewAccountAgeDays,
			NewAccountTxnCount:    ind.NewAccountTxnCount,
			YoungAccountAgeDays:   ind.YoungAccountAgeDays,
			YoungAccountTxnCount:  ind.YoungAccountTxnCount,
			PayeeFanOut:           ind.PayeeFanOut,
			LowHistoryUsage:       ind.LowHistoryUsage,
			LargeTxnCluster:       ind.LargeTxnCluster,
			DailyVolumeAmount:     ind.DailyVolumeAmount,
			CountryScalingDefault: ind.CountryScalingDefault,
			RapidInterval:         ind.RapidInterval,
		},
	}
}

func parseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return d, true
		}
	}
	return 0, false
}
