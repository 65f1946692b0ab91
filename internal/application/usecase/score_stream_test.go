package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/application/usecase"
	"github.com/bibbank/fraudscore/internal/domain/event"
	"github.com/bibbank/fraudscore/internal/domain/model"
)

func TestScoreStream(t *testing.T) {
	t.Run("scores each account in submission order", func(t *testing.T) {
		repo := &mockScoreRepository{}
		stream := usecase.NewScoreStream(newTestEngine(t, 260), newTestProfiles(t), repo, nil, nil, nil, 4)
		stream.Start(context.Background())

		start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 10; i++ {
			for _, account := range []string{"ACC-1", "ACC-2", "ACC-3"} {
				in := dto.TransactionInput{
					AccountKey: account,
					PartyKey:   "P-1",
					Amount:     json.Number("12000"),
					Timestamp:  start.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
				}
				require.NoError(t, stream.Submit(context.Background(), in))
			}
		}
		stream.Stop()

		rows := repo.rows()
		require.Len(t, rows, 30)

		byAccount := map[string][]model.ScoredTransaction{}
		for _, row := range rows {
			assert.Equal(t, stream.RunID(), row.RunID)
			byAccount[row.AccountKey] = append(byAccount[row.AccountKey], row)
		}
		for account, seq := range byAccount {
			require.Len(t, seq, 10, account)
			assert.Equal(t, 1.0, seq[0].Indicators["KI03"], "first sighting of the payee")
			for i := 1; i < len(seq); i++ {
				assert.False(t, seq[i].Timestamp.Before(seq[i-1].Timestamp), account)
				assert.Equal(t, 0.0, seq[i].Indicators["KI03"], account)
			}
		}
	})

	t.Run("rejects out of order and malformed transactions", func(t *testing.T) {
		repo := &mockScoreRepository{}
		metrics := newMockMetrics()
		stream := usecase.NewScoreStream(newTestEngine(t, 260), nil, repo, nil, metrics, nil, 2)
		stream.Start(context.Background())

		require.NoError(t, stream.Submit(context.Background(), txnInput("ACC-1", "P-1", "10", "2025-03-04T12:00:00Z")))
		err := stream.Submit(context.Background(), txnInput("ACC-1", "P-2", "10", "2025-03-04T10:00:00Z"))
		assert.ErrorIs(t, err, model.ErrOutOfOrder)

		err = stream.Submit(context.Background(), txnInput("ACC-1", "P-3", "ten", "2025-03-04T13:00:00Z"))
		assert.ErrorIs(t, err, model.ErrMalformedTransaction)
		stream.Stop()

		rows := repo.rows()
		require.Len(t, rows, 1)
		assert.Equal(t, "P-1", rows[0].PartyKey)
		assert.Equal(t, 1, metrics.rejectedCount("out_of_order"))
		assert.Equal(t, 1, metrics.rejectedCount("malformed"))
	})

	t.Run("publishes high band rows", func(t *testing.T) {
		publisher := &mockEventPublisher{}
		stream := usecase.NewScoreStream(newTestEngine(t, 50), newTestProfiles(t), nil, publisher, nil, nil, 1)
		stream.Start(context.Background())

		require.NoError(t, stream.Submit(context.Background(), txnInput("ACC-1", "P-1", "12000", "2025-03-04T10:00:00Z")))
		require.NoError(t, stream.Submit(context.Background(), txnInput("ACC-1", "P-1", "150", "2025-03-04T10:05:00Z")))
		stream.Stop()

		events := publisher.events()
		require.Len(t, events, 1)
		assert.Equal(t, event.EventTypeHighRiskScored, events[0].EventType())
	})

	t.Run("save failure is returned and leaves the context unchanged", func(t *testing.T) {
		saveErr := errors.New("db down")
		failing := true
		repo := &mockScoreRepository{}
		repo.saveFunc = func(_ context.Context, rows []model.ScoredTransaction) error {
			if failing {
				return saveErr
			}
			repo.saved = append(repo.saved, rows...)
			return nil
		}
		metrics := newMockMetrics()
		stream := usecase.NewScoreStream(newTestEngine(t, 260), newTestProfiles(t), repo, nil, metrics, nil, 1)
		stream.Start(context.Background())
		defer stream.Stop()

		in := txnInput("ACC-1", "P-1", "12000", "2025-03-04T10:00:00Z")
		err := stream.Submit(context.Background(), in)
		assert.ErrorIs(t, err, saveErr)
		assert.Empty(t, repo.rows())

		failing = false
		require.NoError(t, stream.Submit(context.Background(), in))

		rows := repo.rows()
		require.Len(t, rows, 1)
		assert.Equal(t, 1.0, rows[0].Indicators["KI03"], "payee is still unseen after the failed save")
	})

	t.Run("submit after stop fails", func(t *testing.T) {
		stream := usecase.NewScoreStream(newTestEngine(t, 260), nil, nil, nil, nil, nil, 1)
		err := stream.Submit(context.Background(), txnInput("ACC-1", "P-1", "10", "2025-03-04T10:00:00Z"))
		assert.ErrorIs(t, err, usecase.ErrStreamStopped)
		assert.False(t, stream.Running())

		stream.Start(context.Background())
		assert.True(t, stream.Running())
		stream.Stop()
		stream.Stop()
		assert.False(t, stream.Running())

		err = stream.Submit(context.Background(), txnInput("ACC-1", "P-1", "10", "2025-03-04T10:00:00Z"))
		assert.ErrorIs(t, err, usecase.ErrStreamStopped)
	})
}

func TestScoreStream_ManyAccounts(t *testing.T) {
	repo := &mockScoreRepository{}
	stream := usecase.NewScoreStream(newTestEngine(t, 260), nil, repo, nil, nil, nil, 8)
	stream.Start(context.Background())

	for i := 0; i < 200; i++ {
		in := txnInput(fmt.Sprintf("ACC-%03d", i%50), fmt.Sprintf("P-%d", i), "10", "2025-03-04T10:00:00Z")
		require.NoError(t, stream.Submit(context.Background(), in))
	}
	stream.Stop()

	assert.Len(t, repo.rows(), 200)
}
