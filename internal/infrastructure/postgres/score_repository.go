package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

// ScoreRepository implements port.ScoreRepository using PostgreSQL.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new PostgreSQL-backed score repository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

const insertScoredTransaction = `
	INSERT INTO scored_transactions (
		id, run_id, account_key, party_key,
		amount, currency, transaction_at, sequence,
		indicators, signals,
		raw_score, normalized_score, risk_band, scored_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO NOTHING
`

const selectScoredTransaction = `
	SELECT id, run_id, account_key, party_key,
		amount, currency, transaction_at, sequence,
		indicators, raw_score, normalized_score, risk_band, scored_at
	FROM scored_transactions
`

// SaveBatch persists rows atomically.
func (r *ScoreRepository) SaveBatch(ctx context.Context, rows []model.ScoredTransaction) error {
	if len(rows) == 0 {
		return nil
	}
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(insertScoredTransaction,
				row.ID, row.RunID, row.AccountKey, row.PartyKey,
				row.Amount, row.Currency, row.Timestamp, row.Sequence,
				map[string]float64(row.Indicators), row.Signals(),
				row.Result.RawScore, row.Result.NormalizedScore, row.Result.RiskBand.String(), row.ScoredAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save scored transactions: %w", err)
		}
		return nil
	})
}

// FindByID retrieves a scored transaction, or nil when it does not exist.
func (r *ScoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
	row, err := scanScoredTransaction(r.pool.QueryRow(ctx, selectScoredTransaction+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindByAccount retrieves the most recent scored transactions of an account.
func (r *ScoreRepository) FindByAccount(ctx context.Context, accountKey string, limit, offset int) ([]model.ScoredTransaction, error) {
	rows, err := r.pool.Query(ctx, selectScoredTransaction+`
		WHERE account_key = $1
		ORDER BY transaction_at DESC, sequence DESC
		LIMIT $2 OFFSET $3
	`, accountKey, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query scored transactions: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ScoredTransaction, error) {
		return scanScoredTransaction(row)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanScoredTransaction(row pgx.Row) (model.ScoredTransaction, error) {
	var (
		s          model.ScoredTransaction
		amount     decimal.Decimal
		indicators map[string]float64
		band       string
		txnAt      time.Time
	)
	err := row.Scan(
		&s.ID, &s.RunID, &s.AccountKey, &s.PartyKey,
		&amount, &s.Currency, &txnAt, &s.Sequence,
		&indicators, &s.Result.RawScore, &s.Result.NormalizedScore, &band, &s.ScoredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan scored transaction: %w", err)
	}

	riskBand, err := valueobject.RiskBandFromString(band)
	if err != nil {
		return s, fmt.Errorf("failed to parse risk band: %w", err)
	}
	s.Amount = amount
	s.Timestamp = txnAt.UTC()
	s.ScoredAt = s.ScoredAt.UTC()
	s.Indicators = model.IndicatorVector(indicators)
	s.Result.RiskBand = riskBand
	return s, nil
}
