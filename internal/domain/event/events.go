package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeHighRiskScored is emitted for every transaction scored in the
	// High band.
	EventTypeHighRiskScored = "fraud.score.high_risk"

	// EventTypeScoringRunCompleted is emitted once a batch run has finished.
	EventTypeScoringRunCompleted = "fraud.scoring_run.completed"
)

// DomainEvent is implemented by every event published by the scoring engine.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// HighRiskScored is published when a transaction lands in the High band.
type HighRiskScored struct {
	ID              uuid.UUID `json:"event_id"`
	ScoreID         uuid.UUID `json:"score_id"`
	RunID           uuid.UUID `json:"run_id"`
	AccountKey      string    `json:"account_key"`
	PartyKey        string    `json:"party_key"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Signals         []string  `json:"signals"`
	RawScore        float64   `json:"raw_score"`
	NormalizedScore float64   `json:"normalized_score"`
	TransactionAt   time.Time `json:"transaction_at"`
	ScoredAt        time.Time `json:"scored_at"`
}

// NewHighRiskScored creates a HighRiskScored event.
func NewHighRiskScored(
	scoreID, runID uuid.UUID,
	accountKey, partyKey, amount, currency string,
	signals []string,
	rawScore, normalizedScore float64,
	transactionAt, scoredAt time.Time,
) HighRiskScored {
	return HighRiskScored{
		ID:              uuid.New(),
		ScoreID:         scoreID,
		RunID:           runID,
		AccountKey:      accountKey,
		PartyKey:        partyKey,
		Amount:          amount,
		Currency:        currency,
		Signals:         signals,
		RawScore:        rawScore,
		NormalizedScore: normalizedScore,
		TransactionAt:   transactionAt,
		ScoredAt:        scoredAt,
	}
}

// EventID returns the unique event identifier.
func (e HighRiskScored) EventID() uuid.UUID { return e.ID }

// EventType returns the event type identifier.
func (e HighRiskScored) EventType() string { return EventTypeHighRiskScored }

// AggregateID returns the account key; events of one account share a
// partition key.
func (e HighRiskScored) AggregateID() string { return e.AccountKey }

// OccurredAt returns the scoring time.
func (e HighRiskScored) OccurredAt() time.Time { return e.ScoredAt }

// ScoringRunCompleted summarises a batch run.
type ScoringRunCompleted struct {
	ID              uuid.UUID      `json:"event_id"`
	RunID           uuid.UUID      `json:"run_id"`
	BandCounts      map[string]int `json:"band_counts"`
	Scored          int            `json:"scored"`
	Rejected        int            `json:"rejected"`
	AbortedAccounts int            `json:"aborted_accounts"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// NewScoringRunCompleted creates a ScoringRunCompleted event.
func NewScoringRunCompleted(runID uuid.UUID, bandCounts map[string]int, scored, rejected, aborted int, completedAt time.Time) ScoringRunCompleted {
	return ScoringRunCompleted{
		ID:              uuid.New(),
		RunID:           runID,
		BandCounts:      bandCounts,
		Scored:          scored,
		Rejected:        rejected,
		AbortedAccounts: aborted,
		CompletedAt:     completedAt,
	}
}

// EventID returns the unique event identifier.
func (e ScoringRunCompleted) EventID() uuid.UUID { return e.ID }

// EventType returns the event type identifier.
func (e ScoringRunCompleted) EventType() string { return EventTypeScoringRunCompleted }

// AggregateID returns the run ID.
func (e ScoringRunCompleted) AggregateID() string { return e.RunID.String() }

// OccurredAt returns the completion time.
func (e ScoringRunCompleted) OccurredAt() time.Time { return e.CompletedAt }
