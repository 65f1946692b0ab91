package messaging_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/application/usecase"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/service"
	"github.com/bibbank/fraudscore/internal/infrastructure/kafka"
	"github.com/bibbank/fraudscore/internal/presentation/messaging"
)

type mockSubmitter struct {
	err       error
	submitted []dto.TransactionInput
}

func (m *mockSubmitter) Submit(_ context.Context, in dto.TransactionInput) error {
	m.submitted = append(m.submitted, in)
	return m.err
}

func newHandler(s messaging.Submitter) *messaging.TransactionHandler {
	return messaging.NewTransactionHandler(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTransactionHandler_Handle(t *testing.T) {
	t.Run("submits decoded transaction", func(t *testing.T) {
		sub := &mockSubmitter{}
		err := newHandler(sub).Handle(context.Background(), kafka.Message{
			Key:   []byte("ACC-1"),
			Value: []byte(`{"account_key":"ACC-1","party_key":"P-1","amount":"250.00","currency":"USD","timestamp":"2025-03-04T02:15:00Z"}`),
		})
		require.NoError(t, err)
		require.Len(t, sub.submitted, 1)
		assert.Equal(t, "250.00", sub.submitted[0].Amount.String())
	})

	t.Run("falls back to the message key for the account", func(t *testing.T) {
		sub := &mockSubmitter{}
		err := newHandler(sub).Handle(context.Background(), kafka.Message{
			Key:   []byte("ACC-9"),
			Value: []byte(`{"party_key":"P-1","amount":1,"timestamp":"2025-03-04T02:15:00Z"}`),
		})
		require.NoError(t, err)
		require.Len(t, sub.submitted, 1)
		assert.Equal(t, "ACC-9", sub.submitted[0].AccountKey)
	})

	t.Run("acknowledges undecodable payload", func(t *testing.T) {
		sub := &mockSubmitter{}
		err := newHandler(sub).Handle(context.Background(), kafka.Message{Value: []byte(`{not json`)})
		require.NoError(t, err)
		assert.Empty(t, sub.submitted)
	})

	t.Run("acknowledges malformed transaction", func(t *testing.T) {
		sub := &mockSubmitter{err: fmt.Errorf("%w: invalid amount", model.ErrMalformedTransaction)}
		err := newHandler(sub).Handle(context.Background(), kafka.Message{Value: []byte(`{"account_key":"ACC-1"}`)})
		assert.NoError(t, err)
	})

	t.Run("acknowledges out of order transaction", func(t *testing.T) {
		sub := &mockSubmitter{err: fmt.Errorf("transaction 3 rejected: %w", model.ErrOutOfOrder)}
		err := newHandler(sub).Handle(context.Background(), kafka.Message{Value: []byte(`{"account_key":"ACC-1"}`)})
		assert.NoError(t, err)
	})

	t.Run("propagates stopped stream", func(t *testing.T) {
		sub := &mockSubmitter{err: usecase.ErrStreamStopped}
		err := newHandler(sub).Handle(context.Background(), kafka.Message{Value: []byte(`{"account_key":"ACC-1"}`)})
		assert.True(t, errors.Is(err, usecase.ErrStreamStopped))
	})
}

type failingScoreRepository struct {
	err error
}

func (r failingScoreRepository) SaveBatch(context.Context, []model.ScoredTransaction) error {
	return r.err
}

func (r failingScoreRepository) FindByID(context.Context, uuid.UUID) (*model.ScoredTransaction, error) {
	return nil, nil
}

func (r failingScoreRepository) FindByAccount(context.Context, string, int, int) ([]model.ScoredTransaction, error) {
	return nil, nil
}

func TestTransactionHandler_SaveFailureIsNotAcknowledged(t *testing.T) {
	engine, err := service.NewEngine(service.DefaultEngineConfig())
	require.NoError(t, err)
	profiles, err := service.NewProfileStore(nil)
	require.NoError(t, err)

	saveErr := errors.New("db down")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stream := usecase.NewScoreStream(engine, profiles, failingScoreRepository{err: saveErr}, nil, nil, logger, 2)
	stream.Start(context.Background())
	defer stream.Stop()

	err = newHandler(stream).Handle(context.Background(), kafka.Message{
		Key:   []byte("ACC-1"),
		Value: []byte(`{"account_key":"ACC-1","party_key":"P-1","amount":250,"currency":"USD","timestamp":"2025-03-04T02:15:00Z"}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, saveErr)
}
