package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// Deterministic identifiers and times for tests.
var (
	TestRunID = uuid.MustParse("00000000-0000-0000-0000-000000000101")
	// TestNightTime is a Tuesday at 02:15 UTC.
	TestNightTime = time.Date(2025, 3, 4, 2, 15, 0, 0, time.UTC)
)

// Profile returns a profile for accountKey with the given statistics in USD.
func Profile(accountKey string, mean, std float64) model.AccountProfile {
	return model.AccountProfile{AccountKey: accountKey, TypicalCurrency: "USD", MeanAmount: mean, StdAmount: std}
}

// ScoredTransaction returns a Low-band scored row for accountKey at ts.
func ScoredTransaction(accountKey string, ts time.Time, sequence int) model.ScoredTransaction {
	txn := model.Transaction{
		AccountKey: accountKey,
		PartyKey:   "P-1",
		Amount:     decimal.RequireFromString("500.25"),
		Currency:   "USD",
		Timestamp:  ts,
		Sequence:   sequence,
	}
	return model.NewScoredTransaction(TestRunID, txn,
		model.IndicatorVector{"KI01": 1, "KI03": 0, "KI05": 0, "KI05_score": 0, "KI18": 1},
		model.ScoreResult{RawScore: 30, NormalizedScore: 11.538, RiskBand: valueobject.RiskBandLow},
		ts.Add(time.Second).UTC(),
	)
}
