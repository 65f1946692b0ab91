package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/domain/port"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// GetScoredTransaction is the use case for retrieving one scored transaction.
type GetScoredTransaction struct {
	repo port.ScoreRepository
}

// NewGetScoredTransaction creates a new GetScoredTransaction use case.
func NewGetScoredTransaction(repo port.ScoreRepository) *GetScoredTransaction {
	return &GetScoredTransaction{repo: repo}
}

// Execute retrieves a scored transaction by ID.
func (uc *GetScoredTransaction) Execute(ctx context.Context, req dto.GetScoredRequest) (dto.ScoredTransactionResponse, error) {
	row, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		return dto.ScoredTransactionResponse{}, fmt.Errorf("failed to find scored transaction: %w", err)
	}
	if row == nil {
		return dto.ScoredTransactionResponse{}, fmt.Errorf("%w: %s", ErrNotFound, req.ID)
	}
	return dto.FromModel(*row), nil
}

// ListScoredTransactions is the use case for paging through the scored
// transactions of one account, most recent first.
type ListScoredTransactions struct {
	repo port.ScoreRepository
}

// NewListScoredTransactions creates a new ListScoredTransactions use case.
func NewListScoredTransactions(repo port.ScoreRepository) *ListScoredTransactions {
	return &ListScoredTransactions{repo: repo}
}

// Execute lists scored transactions for req.AccountKey.
func (uc *ListScoredTransactions) Execute(ctx context.Context, req dto.ListScoredRequest) (dto.ListScoredResponse, error) {
	if strings.TrimSpace(req.AccountKey) == "" {
		return dto.ListScoredResponse{}, fmt.Errorf("%w: account key is required", ErrInvalidRequest)
	}
	if req.Offset < 0 {
		return dto.ListScoredResponse{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidRequest)
	}
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	rows, err := uc.repo.FindByAccount(ctx, req.AccountKey, limit, req.Offset)
	if err != nil {
		return dto.ListScoredResponse{}, fmt.Errorf("failed to list scored transactions: %w", err)
	}

	resp := dto.ListScoredResponse{Items: make([]dto.ScoredTransactionResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Items = append(resp.Items, dto.FromModel(row))
	}
	resp.Count = len(resp.Items)
	return resp, nil
}
