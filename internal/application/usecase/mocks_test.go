package usecase_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bibbank/fraudscore/internal/domain/event"
	"github.com/bibbank/fraudscore/internal/domain/model"
)

// --- Mock implementations ---

type mockScoreRepository struct {
	mu                sync.Mutex
	saved             []model.ScoredTransaction
	saveCalls         int
	saveFunc          func(ctx context.Context, rows []model.ScoredTransaction) error
	findByIDFunc      func(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error)
	findByAccountFunc func(ctx context.Context, accountKey string, limit, offset int) ([]model.ScoredTransaction, error)
}

func (m *mockScoreRepository) SaveBatch(ctx context.Context, rows []model.ScoredTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveFunc != nil {
		return m.saveFunc(ctx, rows)
	}
	m.saved = append(m.saved, rows...)
	return nil
}

func (m *mockScoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockScoreRepository) FindByAccount(ctx context.Context, accountKey string, limit, offset int) ([]model.ScoredTransaction, error) {
	if m.findByAccountFunc != nil {
		return m.findByAccountFunc(ctx, accountKey, limit, offset)
	}
	return nil, nil
}

func (m *mockScoreRepository) rows() []model.ScoredTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ScoredTransaction, len(m.saved))
	copy(out, m.saved)
	return out
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []event.DomainEvent
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) events() []event.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.DomainEvent, len(m.publishedEvents))
	copy(out, m.publishedEvents)
	return out
}

type mockMetrics struct {
	mu       sync.Mutex
	scored   map[string]int
	rejected map[string]int
	aborted  int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{scored: map[string]int{}, rejected: map[string]int{}}
}

func (m *mockMetrics) RecordScored(_ context.Context, band string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scored[band]++
}

func (m *mockMetrics) RecordRejected(_ context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *mockMetrics) RecordAborted(_ context.Context, accounts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted += accounts
}

func (m *mockMetrics) rejectedCount(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejected[reason]
}
