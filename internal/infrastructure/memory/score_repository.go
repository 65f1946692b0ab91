// Package memory provides in-memory adapters used when no database is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/port"
)

var _ port.ScoreRepository = (*ScoreRepository)(nil)

// ScoreRepository keeps scored transactions in memory. Saving a row whose ID
// is already stored is a no-op.
type ScoreRepository struct {
	rows      map[uuid.UUID]model.ScoredTransaction
	byAccount map[string][]uuid.UUID
	mu        sync.RWMutex
}

// NewScoreRepository creates an empty repository.
func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{
		rows:      make(map[uuid.UUID]model.ScoredTransaction),
		byAccount: make(map[string][]uuid.UUID),
	}
}

func (r *ScoreRepository) SaveBatch(_ context.Context, rows []model.ScoredTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		if _, exists := r.rows[row.ID]; exists {
			continue
		}
		r.rows[row.ID] = row
		r.byAccount[row.AccountKey] = append(r.byAccount[row.AccountKey], row.ID)
	}
	return nil
}

func (r *ScoreRepository) FindByID(_ context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

// FindByAccount returns the rows of accountKey newest first, ordered by
// transaction time then sequence.
func (r *ScoreRepository) FindByAccount(_ context.Context, accountKey string, limit, offset int) ([]model.ScoredTransaction, error) {
	r.mu.RLock()
	ids := r.byAccount[accountKey]
	result := make([]model.ScoredTransaction, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.rows[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].Sequence > result[j].Sequence
	})

	if offset >= len(result) {
		return []model.ScoredTransaction{}, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Len returns the number of stored rows.
func (r *ScoreRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
