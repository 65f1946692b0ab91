package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/application/usecase"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/infrastructure/auth"
)

// MaxBatchSize bounds the transactions accepted by one ScoreTransactions call.
const MaxBatchSize = 50000

// Compile-time assertion that ScoringServiceHandler implements ScoringServiceServer.
var _ ScoringServiceServer = (*ScoringServiceHandler)(nil)

// MethodRoles returns the roles allowed to call each ScoringService method.
func MethodRoles() auth.MethodRoles {
	return auth.MethodRoles{
		MethodScoreTransactions:      {auth.RoleScorer},
		MethodListScoredTransactions: {auth.RoleScorer, auth.RoleAnalyst},
		MethodGetScoredTransaction:   {auth.RoleScorer, auth.RoleAnalyst},
	}
}

// ScoringServiceHandler implements the gRPC ScoringServiceServer interface.
type ScoringServiceHandler struct {
	UnimplementedScoringServiceServer
	scoreBatch *usecase.ScoreBatch
	listScored *usecase.ListScoredTransactions
	getScored  *usecase.GetScoredTransaction
	logger     *slog.Logger
}

// NewScoringServiceHandler creates a new gRPC handler.
func NewScoringServiceHandler(
	scoreBatch *usecase.ScoreBatch,
	listScored *usecase.ListScoredTransactions,
	getScored *usecase.GetScoredTransaction,
	logger *slog.Logger,
) *ScoringServiceHandler {
	return &ScoringServiceHandler{
		scoreBatch: scoreBatch,
		listScored: listScored,
		getScored:  getScored,
		logger:     logger,
	}
}

// Proto-aligned request/response message types.

// TransactionMsg represents the proto Transaction message.
type TransactionMsg struct {
	Features         map[string]float64 `json:"features,omitempty"`
	AccountKey       string             `json:"account_key"`
	PartyKey         string             `json:"party_key"`
	Amount           string             `json:"amount"`
	Currency         string             `json:"currency"`
	Timestamp        string             `json:"timestamp"`
	Channel          string             `json:"channel,omitempty"`
	CountryCode      string             `json:"country_code,omitempty"`
	PriorCountries   []string           `json:"prior_countries,omitempty"`
	CurrentCountries []string           `json:"current_countries,omitempty"`
	ApprovalFlag     bool               `json:"approval_flag,omitempty"`
}

// ScoredTransactionMsg represents the proto ScoredTransaction message.
type ScoredTransactionMsg struct {
	Indicators      map[string]float64 `json:"indicators"`
	ID              string             `json:"id"`
	RunID           string             `json:"run_id"`
	AccountKey      string             `json:"account_key"`
	PartyKey        string             `json:"party_key"`
	Amount          string             `json:"amount"`
	Currency        string             `json:"currency"`
	Timestamp       string             `json:"timestamp"`
	RiskBand        string             `json:"risk_band"`
	ScoredAt        string             `json:"scored_at"`
	Signals         []string           `json:"signals"`
	RawScore        float64            `json:"raw_score"`
	NormalizedScore float64            `json:"normalized_score"`
	Sequence        int32              `json:"sequence"`
}

// RejectionMsg represents the proto Rejection message.
type RejectionMsg struct {
	AccountKey string `json:"account_key"`
	PartyKey   string `json:"party_key"`
	Reason     string `json:"reason"`
	Sequence   int32  `json:"sequence"`
}

// ScoreTransactionsRequest represents the proto ScoreTransactionsRequest message.
type ScoreTransactionsRequest struct {
	Transactions []TransactionMsg `json:"transactions"`
}

// ScoreTransactionsResponse represents the proto ScoreTransactionsResponse message.
type ScoreTransactionsResponse struct {
	BandCounts      map[string]int32       `json:"band_counts"`
	RunID           string                 `json:"run_id"`
	Scored          []ScoredTransactionMsg `json:"scored"`
	Rejected        []RejectionMsg         `json:"rejected"`
	AbortedAccounts []string               `json:"aborted_accounts"`
}

// ListScoredTransactionsRequest represents the proto ListScoredTransactionsRequest message.
type ListScoredTransactionsRequest struct {
	AccountKey string `json:"account_key"`
	Limit      int32  `json:"limit"`
	Offset     int32  `json:"offset"`
}

// ListScoredTransactionsResponse represents the proto ListScoredTransactionsResponse message.
type ListScoredTransactionsResponse struct {
	Items []ScoredTransactionMsg `json:"items"`
	Count int32                  `json:"count"`
}

// GetScoredTransactionRequest represents the proto GetScoredTransactionRequest message.
type GetScoredTransactionRequest struct {
	ID string `json:"id"`
}

// GetScoredTransactionResponse represents the proto GetScoredTransactionResponse message.
type GetScoredTransactionResponse struct {
	Transaction *ScoredTransactionMsg `json:"transaction"`
}

// ScoreTransactions scores a batch of transactions.
func (h *ScoringServiceHandler) ScoreTransactions(ctx context.Context, req *ScoreTransactionsRequest) (*ScoreTransactionsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if len(req.Transactions) > MaxBatchSize {
		return nil, status.Errorf(codes.InvalidArgument, "batch of %d transactions exceeds the limit of %d", len(req.Transactions), MaxBatchSize)
	}

	inputs := make([]dto.TransactionInput, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		inputs = append(inputs, toTransactionInput(t))
	}

	h.logger.Info("scoring batch", slog.Int("transactions", len(inputs)))

	result, err := h.scoreBatch.Execute(ctx, dto.ScoreBatchRequest{Transactions: inputs})
	if err != nil {
		h.logger.Error("failed to score batch",
			slog.String("run_id", result.RunID.String()),
			slog.String("error", err.Error()),
		)
		return nil, toStatus(err)
	}

	resp := &ScoreTransactionsResponse{
		RunID:           result.RunID.String(),
		BandCounts:      make(map[string]int32, len(result.BandCounts)),
		Scored:          make([]ScoredTransactionMsg, 0, len(result.Scored)),
		Rejected:        make([]RejectionMsg, 0, len(result.Rejected)),
		AbortedAccounts: result.AbortedAccounts,
	}
	for band, n := range result.BandCounts {
		resp.BandCounts[band] = int32(n)
	}
	for _, s := range result.Scored {
		resp.Scored = append(resp.Scored, toScoredMsg(s))
	}
	for _, r := range result.Rejected {
		resp.Rejected = append(resp.Rejected, RejectionMsg{
			AccountKey: r.AccountKey,
			PartyKey:   r.PartyKey,
			Reason:     r.Reason,
			Sequence:   int32(r.Sequence),
		})
	}
	return resp, nil
}

// ListScoredTransactions pages through the scored transactions of an account.
func (h *ScoringServiceHandler) ListScoredTransactions(ctx context.Context, req *ListScoredTransactionsRequest) (*ListScoredTransactionsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.listScored.Execute(ctx, dto.ListScoredRequest{
		AccountKey: req.AccountKey,
		Limit:      int(req.Limit),
		Offset:     int(req.Offset),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &ListScoredTransactionsResponse{
		Items: make([]ScoredTransactionMsg, 0, len(result.Items)),
		Count: int32(result.Count),
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, toScoredMsg(item))
	}
	return resp, nil
}

// GetScoredTransaction retrieves one scored transaction by ID.
func (h *ScoringServiceHandler) GetScoredTransaction(ctx context.Context, req *GetScoredTransactionRequest) (*GetScoredTransactionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	result, err := h.getScored.Execute(ctx, dto.GetScoredRequest{ID: id})
	if err != nil {
		return nil, toStatus(err)
	}

	msg := toScoredMsg(result)
	return &GetScoredTransactionResponse{Transaction: &msg}, nil
}

func toTransactionInput(t TransactionMsg) dto.TransactionInput {
	var features model.Features
	if t.Features != nil {
		features = make(model.Features, len(t.Features))
		for name, v := range t.Features {
			features[name] = v
		}
	}
	return dto.TransactionInput{
		AccountKey:       t.AccountKey,
		PartyKey:         t.PartyKey,
		Amount:           json.Number(t.Amount),
		Currency:         t.Currency,
		Timestamp:        t.Timestamp,
		Channel:          t.Channel,
		CountryCode:      t.CountryCode,
		PriorCountries:   t.PriorCountries,
		CurrentCountries: t.CurrentCountries,
		ApprovalFlag:     t.ApprovalFlag,
		Features:         features,
	}
}

func toScoredMsg(s dto.ScoredTransactionResponse) ScoredTransactionMsg {
	return ScoredTransactionMsg{
		ID:              s.ID.String(),
		RunID:           s.RunID.String(),
		AccountKey:      s.AccountKey,
		PartyKey:        s.PartyKey,
		Amount:          s.Amount,
		Currency:        s.Currency,
		Timestamp:       s.Timestamp.Format(time.RFC3339Nano),
		Sequence:        int32(s.Sequence),
		Indicators:      s.Indicators,
		Signals:         s.Signals,
		RawScore:        s.RawScore,
		NormalizedScore: s.NormalizedScore,
		RiskBand:        s.RiskBand,
		ScoredAt:        s.ScoredAt.Format(time.RFC3339Nano),
	}
}

// toStatus maps use case errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, usecase.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
