package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/bibbank/fraudscore/internal/domain/event"
	"github.com/bibbank/fraudscore/internal/domain/model"
)

// ProfileSource loads the account behavioral profiles built upstream. It is
// read once at startup.
type ProfileSource interface {
	LoadProfiles(ctx context.Context) ([]model.AccountProfile, error)
}

// ScoreRepository defines the persistence port for scored transactions.
type ScoreRepository interface {
	// SaveBatch persists the rows of one run atomically.
	SaveBatch(ctx context.Context, rows []model.ScoredTransaction) error

	// FindByID retrieves a scored transaction by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error)

	// FindByAccount retrieves the most recent scored transactions of an account.
	FindByAccount(ctx context.Context, accountKey string, limit, offset int) ([]model.ScoredTransaction, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}
