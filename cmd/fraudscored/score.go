package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/application/usecase"
	"github.com/bibbank/fraudscore/internal/domain/port"
	"github.com/bibbank/fraudscore/internal/domain/service"
	"github.com/bibbank/fraudscore/internal/infrastructure/config"
	"github.com/bibbank/fraudscore/internal/infrastructure/fileio"
	"github.com/bibbank/fraudscore/internal/infrastructure/memory"
	"github.com/bibbank/fraudscore/internal/infrastructure/observability"
	"github.com/bibbank/fraudscore/internal/infrastructure/postgres"
)

// errAborted is returned when some accounts could not finish before the
// deadline. Results for the completed accounts are still written.
var errAborted = errors.New("scoring run aborted before all accounts completed")

// runScore scores a JSON-lines transaction file offline and writes one
// result row per scored transaction to stdout (or -output).
func runScore(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "JSON-lines transaction file (- for stdin)")
	profiles := fs.String("profiles", "", "account profile file (.csv or .json)")
	scoringPath := fs.String("config", "", "scoring configuration YAML (default: scorecard preset)")
	output := fs.String("output", "", "result file (default: stdout)")
	format := fs.String("format", fileio.FormatJSONLines, "result format: jsonl or csv")
	workers := fs.Int("workers", 4, "accounts scored in parallel")
	timeout := fs.Duration("timeout", 0, "abort the run after this duration (0 = no limit)")
	database := fs.String("database", "", "PostgreSQL URL to persist results (optional)")
	logLevel := fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.New("score: -input is required")
	}
	switch *format {
	case fileio.FormatJSONLines, fileio.FormatCSV:
	default:
		return fmt.Errorf("score: unsupported format %q", *format)
	}

	logger := observability.InitLogger(observability.LogConfig{Output: stderr, Level: *logLevel})

	engineCfg, err := config.LoadScoring(*scoringPath)
	if err != nil {
		return err
	}
	engine, err := service.NewEngine(engineCfg)
	if err != nil {
		return err
	}

	var profileSource port.ProfileSource = memory.ProfileSource(nil)
	if *profiles != "" {
		profileSource = fileio.ProfileFile{Path: *profiles}
	}
	store, err := service.LoadProfileStore(ctx, profileSource)
	if err != nil {
		return err
	}

	txns, lineErrs, err := readInput(*input)
	if err != nil {
		return err
	}
	for _, le := range lineErrs {
		logger.Warn("skipping undecodable line", "line", le.Line, "error", le.Err)
	}

	var repo port.ScoreRepository
	if *database != "" {
		if err := postgres.RunMigrations(*database); err != nil {
			return err
		}
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: *database})
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = postgres.NewScoreRepository(pool)
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	scoreBatch := usecase.NewScoreBatch(engine, store, repo, nil, nil, logger, *workers)
	resp, err := scoreBatch.Execute(ctx, dto.ScoreBatchRequest{Transactions: txns})
	if err != nil {
		return err
	}

	for _, r := range resp.Rejected {
		logger.Warn("transaction rejected",
			"account_key", r.AccountKey,
			"sequence", r.Sequence,
			"reason", r.Reason,
		)
	}

	if *output == "" {
		err = fileio.WriteResults(stdout, *format, resp.Scored)
	} else {
		err = writeResultsFile(*output, *format, resp.Scored)
	}
	if err != nil {
		return err
	}

	logger.Info("results written",
		"run_id", resp.RunID,
		"format", *format,
		"scored", len(resp.Scored),
		"rejected", len(resp.Rejected)+len(lineErrs),
		"band_counts", resp.BandCounts,
	)

	if len(resp.AbortedAccounts) > 0 {
		return fmt.Errorf("%w: %s", errAborted, strings.Join(resp.AbortedAccounts, ","))
	}
	return nil
}

func readInput(path string) ([]dto.TransactionInput, []fileio.LineError, error) {
	if path == "-" {
		return fileio.ReadTransactions(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return fileio.ReadTransactions(f)
}

// writeResultsFile writes rows to path, reporting a failing Close.
func writeResultsFile(path, format string, rows []dto.ScoredTransactionResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fileio.WriteResults(f, format, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
