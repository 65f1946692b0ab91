package service

import (
	"github.com/bibbank/fraudscore/internal/domain/model"
)

// Scorer evaluates and aggregates a single transaction.
type Scorer interface {
	Score(in EvaluationInput) (model.IndicatorVector, model.ScoreResult)
}

// Engine is the rule-based Scorer: indicator evaluation followed by score
// aggregation. It is stateless; running context lives in a ContextTracker.
type Engine struct {
	evaluator  *Evaluator
	aggregator *Aggregator
	cfg        EngineConfig
}

var _ Scorer = (*Engine)(nil)

// NewEngine validates cfg and builds an engine. Flag indicators are evaluated
// only when they have a configured weight; the KI05 country sub-score is
// always evaluated.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(cfg.Weights))
	for code := range cfg.Weights {
		codes = append(codes, code)
	}

	evaluator, err := NewEvaluator(cfg.Indicators, NewCountryRiskTable(cfg.CountryRisk), codes)
	if err != nil {
		return nil, err
	}
	aggregator, err := NewAggregator(cfg.Weights, cfg.Normalization, cfg.Bands)
	if err != nil {
		return nil, err
	}

	return &Engine{evaluator: evaluator, aggregator: aggregator, cfg: cfg}, nil
}

// Score implements Scorer.
func (e *Engine) Score(in EvaluationInput) (model.IndicatorVector, model.ScoreResult) {
	v := e.evaluator.Evaluate(in)
	return v, e.aggregator.Aggregate(v)
}

// NewContextTracker returns an empty tracker using the configured lookback.
func (e *Engine) NewContextTracker() *ContextTracker {
	return NewContextTracker(e.cfg.Lookback)
}

// Evaluator returns the engine's indicator evaluator.
func (e *Engine) Evaluator() *Evaluator { return e.evaluator }

// Aggregator returns the engine's score aggregator.
func (e *Engine) Aggregator() *Aggregator { return e.aggregator }
