package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/fraudscore/internal/domain/model"
)

// ProfileRepository implements port.ProfileSource using PostgreSQL.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// LoadProfiles reads every account profile.
func (r *ProfileRepository) LoadProfiles(ctx context.Context) ([]model.AccountProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_key, typical_currency, mean_amount, std_amount
		FROM account_profiles
		ORDER BY account_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query account profiles: %w", err)
	}

	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AccountProfile, error) {
		var p model.AccountProfile
		err := row.Scan(&p.AccountKey, &p.TypicalCurrency, &p.MeanAmount, &p.StdAmount)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan account profile: %w", err)
	}
	return profiles, nil
}

// UpsertProfiles inserts or replaces profiles in one transaction.
func (r *ProfileRepository) UpsertProfiles(ctx context.Context, profiles []model.AccountProfile) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range profiles {
			batch.Queue(`
				INSERT INTO account_profiles (account_key, typical_currency, mean_amount, std_amount, updated_at)
				VALUES ($1, $2, $3, $4, NOW())
				ON CONFLICT (account_key) DO UPDATE SET
					typical_currency = EXCLUDED.typical_currency,
					mean_amount = EXCLUDED.mean_amount,
					std_amount = EXCLUDED.std_amount,
					updated_at = EXCLUDED.updated_at
			`, p.AccountKey, p.TypicalCurrency, p.MeanAmount, p.StdAmount)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert account profiles: %w", err)
		}
		return nil
	})
}
