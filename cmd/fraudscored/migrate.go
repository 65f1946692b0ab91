package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/infrastructure/fileio"
	"github.com/bibbank/fraudscore/internal/infrastructure/postgres"
)

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	database := fs.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *database == "" {
		return errors.New("migrate: -database or DATABASE_URL is required")
	}

	direction := "up"
	if fs.NArg() > 0 {
		direction = fs.Arg(0)
	}
	switch direction {
	case "up":
		return postgres.RunMigrations(*database)
	case "down":
		return postgres.RunMigrationsDown(*database)
	default:
		return fmt.Errorf("migrate: unknown direction %q", direction)
	}
}

// runImportProfiles loads an account profile file into the database.
func runImportProfiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-profiles", flag.ContinueOnError)
	path := fs.String("profiles", "", "account profile file (.csv or .json)")
	database := fs.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *database == "" {
		return errors.New("import-profiles: -profiles and -database are required")
	}

	raw, err := fileio.ProfileFile{Path: *path}.LoadProfiles(ctx)
	if err != nil {
		return err
	}
	profiles := make([]model.AccountProfile, 0, len(raw))
	for _, p := range raw {
		normalized, err := p.Normalize()
		if err != nil {
			return fmt.Errorf("invalid profile %q: %w", p.AccountKey, err)
		}
		profiles = append(profiles, normalized)
	}

	if err := postgres.RunMigrations(*database); err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: *database})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.NewProfileRepository(pool).UpsertProfiles(ctx, profiles); err != nil {
		return err
	}
	slog.Info("account profiles imported", "count", len(profiles), "source", *path)
	return nil
}
