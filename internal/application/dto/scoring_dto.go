package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/fraudscore/internal/domain/model"
)

// TransactionInput is the wire form of an engineered transaction. Amount and
// Timestamp are kept textual so that a malformed value rejects only its own
// transaction.
type TransactionInput struct {
	Features         model.Features `json:"features,omitempty"`
	AccountKey       string         `json:"account_key"`
	PartyKey         string         `json:"party_key"`
	Amount           json.Number    `json:"amount"`
	Currency         string         `json:"currency"`
	Timestamp        string         `json:"timestamp"`
	Channel          string         `json:"channel,omitempty"`
	CountryCode      string         `json:"country_code,omitempty"`
	PriorCountries   []string       `json:"prior_countries,omitempty"`
	CurrentCountries []string       `json:"current_countries,omitempty"`
	ApprovalFlag     bool           `json:"approval_flag,omitempty"`
}

// ToModel parses the input into a validated transaction carrying sequence.
func (in TransactionInput) ToModel(sequence int) (model.Transaction, error) {
	amount, err := model.ParseAmount(in.Amount.String())
	if err != nil {
		return model.Transaction{}, err
	}
	ts, err := model.ParseTimestamp(in.Timestamp)
	if err != nil {
		return model.Transaction{}, err
	}

	txn := model.Transaction{
		AccountKey:       in.AccountKey,
		PartyKey:         in.PartyKey,
		Amount:           amount,
		Currency:         in.Currency,
		Timestamp:        ts,
		Channel:          in.Channel,
		CountryCode:      in.CountryCode,
		PriorCountries:   in.PriorCountries,
		CurrentCountries: in.CurrentCountries,
		Features:         in.Features,
		ApprovalFlag:     in.ApprovalFlag,
		Sequence:         sequence,
	}
	if err := txn.Validate(); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

// ScoreBatchRequest is the input DTO for the ScoreBatch use case.
type ScoreBatchRequest struct {
	Transactions []TransactionInput `json:"transactions"`
}

// ScoredTransactionResponse is the output row for one scored transaction.
type ScoredTransactionResponse struct {
	Timestamp       time.Time          `json:"timestamp"`
	ScoredAt        time.Time          `json:"scored_at"`
	Indicators      map[string]float64 `json:"indicators"`
	Signals         []string           `json:"signals"`
	ID              uuid.UUID          `json:"id"`
	RunID           uuid.UUID          `json:"run_id"`
	AccountKey      string             `json:"account_key"`
	PartyKey        string             `json:"party_key"`
	Amount          string             `json:"amount"`
	Currency        string             `json:"currency"`
	RiskBand        string             `json:"risk_band"`
	RawScore        float64            `json:"raw_score"`
	NormalizedScore float64            `json:"normalized_score"`
	Sequence        int                `json:"sequence"`
}

// RejectionResponse describes a transaction that was not scored.
type RejectionResponse struct {
	AccountKey string `json:"account_key"`
	PartyKey   string `json:"party_key"`
	Reason     string `json:"reason"`
	Sequence   int    `json:"sequence"`
}

// ScoreBatchResponse is the output DTO of a batch run.
type ScoreBatchResponse struct {
	BandCounts      map[string]int              `json:"band_counts"`
	Scored          []ScoredTransactionResponse `json:"scored"`
	Rejected        []RejectionResponse         `json:"rejected"`
	AbortedAccounts []string                    `json:"aborted_accounts,omitempty"`
	RunID           uuid.UUID                   `json:"run_id"`
}

// ListScoredRequest is the input DTO for listing an account's scored
// transactions.
type ListScoredRequest struct {
	AccountKey string `json:"account_key"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// ListScoredResponse is the output DTO for ListScoredTransactions.
type ListScoredResponse struct {
	Items []ScoredTransactionResponse `json:"items"`
	Count int                         `json:"count"`
}

// GetScoredRequest is the input DTO for retrieving one scored transaction.
type GetScoredRequest struct {
	ID uuid.UUID `json:"id"`
}

// FromModel maps a scored transaction to the response DTO.
func FromModel(s model.ScoredTransaction) ScoredTransactionResponse {
	indicators := make(map[string]float64, len(s.Indicators))
	for code, v := range s.Indicators {
		indicators[code] = v
	}
	return ScoredTransactionResponse{
		ID:              s.ID,
		RunID:           s.RunID,
		AccountKey:      s.AccountKey,
		PartyKey:        s.PartyKey,
		Amount:          s.Amount.String(),
		Currency:        s.Currency,
		Timestamp:       s.Timestamp,
		Sequence:        s.Sequence,
		Indicators:      indicators,
		Signals:         s.Signals(),
		RawScore:        s.Result.RawScore,
		NormalizedScore: s.Result.NormalizedScore,
		RiskBand:        s.Result.RiskBand.String(),
		ScoredAt:        s.ScoredAt,
	}
}

// FromRejection maps a rejection to the response DTO.
func FromRejection(r model.Rejection) RejectionResponse {
	return RejectionResponse{
		AccountKey: r.AccountKey,
		PartyKey:   r.PartyKey,
		Sequence:   r.Sequence,
		Reason:     r.Reason(),
	}
}
