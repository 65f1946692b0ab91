package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bibbank/fraudscore/internal/infrastructure/postgres"
)

// PostgresContainer wraps a migrated PostgreSQL test instance.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	Pool      *pgxpool.Pool
	DSN       string
}

// NewPostgresContainer starts PostgreSQL, applies the service migrations and
// registers cleanup on t. It skips the test under -short.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fraudscore"),
		tcpostgres.WithUsername("fraudscore"),
		tcpostgres.WithPassword("fraudscore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	pc := &PostgresContainer{Container: container}
	t.Cleanup(func() { pc.cleanup(t) })

	pc.DSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	if err := postgres.RunMigrations(pc.DSN); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	pc.Pool, err = postgres.NewPool(ctx, postgres.PoolConfig{URL: pc.DSN, MaxConns: 4})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	return pc
}

func (pc *PostgresContainer) cleanup(t *testing.T) {
	t.Helper()
	if pc.Pool != nil {
		pc.Pool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate postgres container: %v", err)
	}
}
