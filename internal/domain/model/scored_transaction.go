package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// ScoreResult is the aggregated outcome for one indicator vector.
type ScoreResult struct {
	RiskBand        valueobject.RiskBand
	RawScore        float64
	NormalizedScore float64
}

// ScoredTransaction is the output row emitted for every scored transaction.
type ScoredTransaction struct {
	Timestamp  time.Time
	ScoredAt   time.Time
	Amount     decimal.Decimal
	Indicators IndicatorVector
	Result     ScoreResult
	AccountKey string
	PartyKey   string
	Currency   string
	Sequence   int
	ID         uuid.UUID
	RunID      uuid.UUID
}

// NewScoredTransaction builds the output row for txn.
func NewScoredTransaction(runID uuid.UUID, txn Transaction, indicators IndicatorVector, result ScoreResult, scoredAt time.Time) ScoredTransaction {
	return ScoredTransaction{
		ID:         uuid.New(),
		RunID:      runID,
		AccountKey: txn.AccountKey,
		PartyKey:   txn.PartyKey,
		Amount:     txn.Amount,
		Currency:   txn.Currency,
		Timestamp:  txn.Timestamp,
		Sequence:   txn.Sequence,
		Indicators: indicators,
		Result:     result,
		ScoredAt:   scoredAt,
	}
}

// Signals returns the codes of the indicators that fired.
func (s ScoredTransaction) Signals() []string {
	return s.Indicators.Triggered()
}

// Rejection records a transaction that could not be scored.
type Rejection struct {
	Err        error
	AccountKey string
	PartyKey   string
	Sequence   int
}

// Reason returns the rejection message.
func (r Rejection) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
