package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/domain/event"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/port"
	"github.com/bibbank/fraudscore/internal/domain/service"
	"github.com/bibbank/fraudscore/internal/domain/valueobject"
)

const tracerName = "github.com/bibbank/fraudscore/internal/application/usecase"

// ScoreBatch is the use case for scoring a finite set of transactions in one
// run. Accounts are scored in parallel; the transactions of one account are
// scored sequentially in timestamp order.
type ScoreBatch struct {
	engine    *service.Engine
	profiles  *service.ProfileStore
	repo      port.ScoreRepository
	publisher port.EventPublisher
	metrics   MetricsRecorder
	logger    *slog.Logger
	now       func() time.Time
	workers   int
}

// NewScoreBatch creates a new ScoreBatch use case. repo and publisher may be
// nil, in which case results are only returned.
func NewScoreBatch(
	engine *service.Engine,
	profiles *service.ProfileStore,
	repo port.ScoreRepository,
	publisher port.EventPublisher,
	metrics MetricsRecorder,
	logger *slog.Logger,
	workers int,
) *ScoreBatch {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &ScoreBatch{
		engine:    engine,
		profiles:  profiles,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		workers:   workers,
	}
}

type accountBatch struct {
	key  string
	txns []model.Transaction
}

type accountOutcome struct {
	rows       []model.ScoredTransaction
	rejections []model.Rejection
	aborted    bool
}

// Execute scores every transaction of req. Malformed transactions are
// rejected individually. When ctx is cancelled mid-run, accounts that did not
// finish are reported as aborted and contribute no rows; completed accounts
// are still persisted.
func (uc *ScoreBatch) Execute(ctx context.Context, req dto.ScoreBatchRequest) (dto.ScoreBatchResponse, error) {
	runID := uuid.New()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ScoreBatch.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("fraudscore.run_id", runID.String()),
		attribute.Int("fraudscore.transactions", len(req.Transactions)),
	)

	// 1. Parse inputs, numbering them in arrival order.
	var rejections []model.Rejection
	batches := make(map[string]*accountBatch)
	for seq, in := range req.Transactions {
		txn, err := in.ToModel(seq)
		if err != nil {
			rejections = append(rejections, model.Rejection{
				AccountKey: in.AccountKey,
				PartyKey:   in.PartyKey,
				Sequence:   seq,
				Err:        err,
			})
			continue
		}
		b, ok := batches[txn.AccountKey]
		if !ok {
			b = &accountBatch{key: txn.AccountKey}
			batches[txn.AccountKey] = b
		}
		b.txns = append(b.txns, txn)
	}

	// 2. Order accounts by key and each account by timestamp, keeping input
	// order for equal timestamps.
	accounts := make([]*accountBatch, 0, len(batches))
	for _, b := range batches {
		sort.SliceStable(b.txns, func(i, j int) bool {
			return b.txns[i].Timestamp.Before(b.txns[j].Timestamp)
		})
		accounts = append(accounts, b)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].key < accounts[j].key })

	// 3. Score accounts concurrently against a run-scoped tracker.
	tracker := uc.engine.NewContextTracker()
	outcomes := make([]accountOutcome, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, b := range accounts {
		g.Go(func() error {
			outcomes[i] = uc.scoreAccount(gctx, tracker, runID, b)
			return nil
		})
	}
	_ = g.Wait()

	// 4. Collect results in (account, timestamp, sequence) order.
	resp := dto.ScoreBatchResponse{
		RunID:      runID,
		BandCounts: make(map[string]int),
		Scored:     []dto.ScoredTransactionResponse{},
		Rejected:   []dto.RejectionResponse{},
	}
	var rows []model.ScoredTransaction
	for i, out := range outcomes {
		if out.aborted {
			resp.AbortedAccounts = append(resp.AbortedAccounts, accounts[i].key)
			continue
		}
		rows = append(rows, out.rows...)
		rejections = append(rejections, out.rejections...)
	}
	sort.SliceStable(rejections, func(i, j int) bool { return rejections[i].Sequence < rejections[j].Sequence })

	for _, row := range rows {
		resp.Scored = append(resp.Scored, dto.FromModel(row))
		resp.BandCounts[row.Result.RiskBand.String()]++
		uc.metrics.RecordScored(ctx, row.Result.RiskBand.String(), row.Result.NormalizedScore)
	}
	for _, r := range rejections {
		resp.Rejected = append(resp.Rejected, dto.FromRejection(r))
		uc.metrics.RecordRejected(ctx, rejectionReason(r.Err))
		uc.logger.Warn("transaction rejected",
			"run_id", runID,
			"account_key", r.AccountKey,
			"sequence", r.Sequence,
			"error", r.Err,
		)
	}
	if n := len(resp.AbortedAccounts); n > 0 {
		uc.metrics.RecordAborted(ctx, n)
		uc.logger.Warn("scoring run interrupted", "run_id", runID, "aborted_accounts", n, "error", ctx.Err())
	}

	// 5. Persist and publish even when the run was interrupted.
	persistCtx := context.WithoutCancel(ctx)
	if uc.repo != nil && len(rows) > 0 {
		if err := uc.repo.SaveBatch(persistCtx, rows); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
			return resp, fmt.Errorf("failed to save scored transactions: %w", err)
		}
	}
	if uc.publisher != nil {
		events := runEvents(runID, rows, resp, len(rejections), uc.now())
		if err := uc.publisher.Publish(persistCtx, events...); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			return resp, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	span.SetAttributes(
		attribute.Int("fraudscore.scored", len(rows)),
		attribute.Int("fraudscore.rejected", len(rejections)),
		attribute.Int("fraudscore.aborted_accounts", len(resp.AbortedAccounts)),
	)
	uc.logger.Info("scoring run completed",
		"run_id", runID,
		"accounts", len(accounts),
		"scored", len(rows),
		"rejected", len(rejections),
		"high", resp.BandCounts[valueobject.RiskBandHigh.String()],
	)
	return resp, nil
}

// scoreAccount scores the transactions of one account in order. The account
// context is committed only if every transaction was processed.
func (uc *ScoreBatch) scoreAccount(ctx context.Context, tracker *service.ContextTracker, runID uuid.UUID, b *accountBatch) accountOutcome {
	sess := tracker.Session(b.key)
	defer sess.Close()

	var out accountOutcome
	for _, txn := range b.txns {
		if ctx.Err() != nil {
			return accountOutcome{aborted: true}
		}
		row, err := scoreInSession(uc.engine, uc.profiles, sess, runID, txn, uc.now())
		if err != nil {
			out.rejections = append(out.rejections, model.Rejection{
				AccountKey: txn.AccountKey,
				PartyKey:   txn.PartyKey,
				Sequence:   txn.Sequence,
				Err:        err,
			})
			continue
		}
		out.rows = append(out.rows, row)
	}
	sess.Commit()
	return out
}

// scoreInSession runs read, evaluate, aggregate and update for one
// transaction against an open account session.
func scoreInSession(
	engine *service.Engine,
	profiles *service.ProfileStore,
	sess *service.AccountSession,
	runID uuid.UUID,
	txn model.Transaction,
	scoredAt time.Time,
) (model.ScoredTransaction, error) {
	accountCtx := sess.Context(txn.Timestamp)
	if err := accountCtx.CheckOrder(txn.Timestamp); err != nil {
		return model.ScoredTransaction{}, err
	}

	vector, result := engine.Score(service.EvaluationInput{
		Context:     accountCtx,
		Profile:     profiles.Lookup(txn.AccountKey, txn.Currency),
		Transaction: txn,
	})
	if err := sess.Observe(txn); err != nil {
		return model.ScoredTransaction{}, fmt.Errorf("failed to update account context: %w", err)
	}
	return model.NewScoredTransaction(runID, txn, vector, result, scoredAt), nil
}

func runEvents(runID uuid.UUID, rows []model.ScoredTransaction, resp dto.ScoreBatchResponse, rejected int, completedAt time.Time) []event.DomainEvent {
	var events []event.DomainEvent
	for _, row := range rows {
		if e, ok := highRiskEvent(row); ok {
			events = append(events, e)
		}
	}
	events = append(events, event.NewScoringRunCompleted(
		runID, resp.BandCounts, len(rows), rejected, len(resp.AbortedAccounts), completedAt,
	))
	return events
}

func highRiskEvent(row model.ScoredTransaction) (event.DomainEvent, bool) {
	if !row.Result.RiskBand.Equal(valueobject.RiskBandHigh) {
		return nil, false
	}
	return event.NewHighRiskScored(
		row.ID, row.RunID,
		row.AccountKey, row.PartyKey, row.Amount.String(), row.Currency,
		row.Signals(),
		row.Result.RawScore, row.Result.NormalizedScore,
		row.Timestamp, row.ScoredAt,
	), true
}

// isRejection reports whether err rejects a single transaction rather than
// failing the caller.
func isRejection(err error) bool {
	return errors.Is(err, model.ErrMalformedTransaction) || errors.Is(err, model.ErrOutOfOrder)
}
