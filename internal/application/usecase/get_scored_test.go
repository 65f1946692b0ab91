package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/application/usecase"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

func sampleRow() model.ScoredTransaction {
	return model.NewScoredTransaction(uuid.New(), model.Transaction{
		AccountKey: "ACC-1",
		PartyKey:   "P-1",
		Amount:     decimal.NewFromInt(500),
		Currency:   "USD",
		Timestamp:  time.Date(2025, 3, 4, 2, 15, 0, 0, time.UTC),
	}, model.IndicatorVector{"KI01": 1}, model.ScoreResult{RawScore: 20, NormalizedScore: 7.69, RiskBand: valueobject.RiskBandLow}, time.Now())
}

func TestGetScoredTransaction_Execute(t *testing.T) {
	t.Run("returns the stored row", func(t *testing.T) {
		row := sampleRow()
		repo := &mockScoreRepository{
			findByIDFunc: func(_ context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
				if id == row.ID {
					return &row, nil
				}
				return nil, nil
			},
		}
		uc := usecase.NewGetScoredTransaction(repo)

		resp, err := uc.Execute(context.Background(), dto.GetScoredRequest{ID: row.ID})
		require.NoError(t, err)
		assert.Equal(t, row.ID, resp.ID)
		assert.Equal(t, "LOW", resp.RiskBand)
	})

	t.Run("not found", func(t *testing.T) {
		uc := usecase.NewGetScoredTransaction(&mockScoreRepository{})

		_, err := uc.Execute(context.Background(), dto.GetScoredRequest{ID: uuid.New()})
		assert.ErrorIs(t, err, usecase.ErrNotFound)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := &mockScoreRepository{
			findByIDFunc: func(_ context.Context, _ uuid.UUID) (*model.ScoredTransaction, error) {
				return nil, errors.New("db down")
			},
		}
		_, err := usecase.NewGetScoredTransaction(repo).Execute(context.Background(), dto.GetScoredRequest{ID: uuid.New()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find scored transaction")
	})
}

func TestListScoredTransactions_Execute(t *testing.T) {
	t.Run("applies default limit", func(t *testing.T) {
		var gotLimit, gotOffset int
		repo := &mockScoreRepository{
			findByAccountFunc: func(_ context.Context, _ string, limit, offset int) ([]model.ScoredTransaction, error) {
				gotLimit, gotOffset = limit, offset
				return []model.ScoredTransaction{sampleRow(), sampleRow()}, nil
			},
		}
		uc := usecase.NewListScoredTransactions(repo)

		resp, err := uc.Execute(context.Background(), dto.ListScoredRequest{AccountKey: "ACC-1", Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, 50, gotLimit)
		assert.Equal(t, 10, gotOffset)
	})

	t.Run("caps the limit", func(t *testing.T) {
		var gotLimit int
		repo := &mockScoreRepository{
			findByAccountFunc: func(_ context.Context, _ string, limit, _ int) ([]model.ScoredTransaction, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		resp, err := usecase.NewListScoredTransactions(repo).Execute(context.Background(), dto.ListScoredRequest{AccountKey: "ACC-1", Limit: 10000})
		require.NoError(t, err)
		assert.Equal(t, 500, gotLimit)
		assert.Empty(t, resp.Items)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		uc := usecase.NewListScoredTransactions(&mockScoreRepository{})

		_, err := uc.Execute(context.Background(), dto.ListScoredRequest{})
		assert.ErrorIs(t, err, usecase.ErrInvalidRequest)

		_, err = uc.Execute(context.Background(), dto.ListScoredRequest{AccountKey: "ACC-1", Offset: -1})
		assert.ErrorIs(t, err, usecase.ErrInvalidRequest)
	})
}
