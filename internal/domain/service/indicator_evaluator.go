package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bibbank/fraudscore/internal/domain/model"
)

// EvaluationInput is everything an indicator may look at.
type EvaluationInput struct {
	Context     *model.AccountContext
	Profile     model.AccountProfile
	Transaction model.Transaction
}

// Evaluator computes indicator vectors. It holds no mutable state and is safe
// for concurrent use.
type Evaluator struct {
	countries  *CountryRiskTable
	nightHours map[int]struct{}
	weekend    map[time.Weekday]struct{}
	channels   map[string]struct{}
	highRisk   map[string]struct{}
	enabled    []Indicator
	cfg        IndicatorConfig
}

// NewEvaluator builds an evaluator for the given indicator codes, in catalog
// order. An empty code list enables the whole catalog. Sub-score indicators
// are always enabled: their sub-score reaches the raw score unweighted even
// when the companion flag carries no weight.
func NewEvaluator(cfg IndicatorConfig, countries *CountryRiskTable, codes []string) (*Evaluator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	e := &Evaluator{
		cfg:        cfg,
		countries:  countries,
		nightHours: make(map[int]struct{}, len(cfg.NightHours)),
		weekend:    make(map[time.Weekday]struct{}, len(cfg.WeekendDays)),
		channels:   make(map[string]struct{}, len(cfg.DigitalChannels)),
		highRisk:   countrySet(cfg.HighRiskCountries),
	}
	for _, h := range cfg.NightHours {
		e.nightHours[h] = struct{}{}
	}
	for _, d := range cfg.WeekendDays {
		e.weekend[d] = struct{}{}
	}
	for _, ch := range cfg.DigitalChannels {
		e.channels[strings.ToLower(strings.TrimSpace(ch))] = struct{}{}
	}

	want := make(map[string]bool, len(codes))
	for _, code := range codes {
		if _, ok := lookupIndicator(code); !ok {
			return nil, fmt.Errorf("%w: unknown indicator %q", ErrInvalidConfig, code)
		}
		want[code] = true
	}
	for _, ind := range catalog {
		if len(want) == 0 || want[ind.Code] || ind.Continuous() {
			e.enabled = append(e.enabled, ind)
		}
	}
	return e, nil
}

// Indicators returns the enabled indicators in evaluation order.
func (e *Evaluator) Indicators() []Indicator {
	out := make([]Indicator, len(e.enabled))
	copy(out, e.enabled)
	return out
}

// Evaluate runs every enabled indicator against in. A nil context is treated
// as a first sighting of the account.
func (e *Evaluator) Evaluate(in EvaluationInput) model.IndicatorVector {
	v := make(model.IndicatorVector, len(e.enabled)+1)
	for _, ind := range e.enabled {
		if ind.Continuous() {
			score := ind.subScore(e, in)
			v[ind.SubScoreCode()] = score
			v[ind.Code] = flag(score > 0)
			continue
		}
		v[ind.Code] = flag(ind.rule(e, in))
	}
	return v
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
