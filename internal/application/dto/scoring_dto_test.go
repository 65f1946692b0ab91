package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

func TestTransactionInput_ToModel(t *testing.T) {
	var in dto.TransactionInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"account_key": "ACC-1",
		"party_key": "P-1",
		"amount": 1250.5,
		"currency": "USD",
		"timestamp": "2025-03-04T02:15:00Z",
		"channel": "mobile",
		"prior_countries": ["UK"],
		"current_countries": ["UK", "NG"],
		"features": {"txn_count_24h": 3}
	}`), &in))

	txn, err := in.ToModel(7)
	require.NoError(t, err)
	assert.Equal(t, "ACC-1", txn.AccountKey)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("1250.5")))
	assert.Equal(t, 7, txn.Sequence)
	assert.Equal(t, []string{"UK", "NG"}, txn.CurrentCountries)
	v, ok := txn.Features.Value(model.FeatureTxnCount24h)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestTransactionInput_ToModel_Malformed(t *testing.T) {
	valid := dto.TransactionInput{AccountKey: "ACC-1", Amount: "10", Timestamp: "2025-03-04T02:15:00Z"}

	tests := []struct {
		name   string
		mutate func(*dto.TransactionInput)
	}{
		{"missing amount", func(in *dto.TransactionInput) { in.Amount = "" }},
		{"negative amount", func(in *dto.TransactionInput) { in.Amount = "-1" }},
		{"bad timestamp", func(in *dto.TransactionInput) { in.Timestamp = "yesterday" }},
		{"missing account", func(in *dto.TransactionInput) { in.AccountKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := in.ToModel(0)
			assert.ErrorIs(t, err, model.ErrMalformedTransaction)
		})
	}
}

func TestFromModel(t *testing.T) {
	txn := model.Transaction{
		AccountKey: "ACC-1",
		PartyKey:   "P-1",
		Amount:     decimal.NewFromInt(500),
		Currency:   "USD",
		Timestamp:  time.Date(2025, 3, 4, 2, 15, 0, 0, time.UTC),
		Sequence:   3,
	}
	runID := uuid.New()
	row := model.NewScoredTransaction(runID, txn,
		model.IndicatorVector{"KI01": 1, "KI18": 1, "KI03": 0},
		model.ScoreResult{RawScore: 30, NormalizedScore: 11.5, RiskBand: valueobject.RiskBandLow},
		time.Now())

	resp := dto.FromModel(row)
	assert.Equal(t, runID, resp.RunID)
	assert.Equal(t, "500", resp.Amount)
	assert.Equal(t, "LOW", resp.RiskBand)
	assert.Equal(t, []string{"KI01", "KI18"}, resp.Signals)
	assert.Equal(t, 3, resp.Sequence)
}
