package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/port"
	"github.com/bibbank/fraudscore/internal/domain/service"
)

// ScoreStream scores an unbounded sequence of transactions. Each account is
// owned by exactly one partition worker, selected by hashing the account key,
// so an account's transactions are scored in submission order. Submit returns
// once the transaction is scored and persisted.
type ScoreStream struct {
	engine     *service.Engine
	profiles   *service.ProfileStore
	tracker    *service.ContextTracker
	repo       port.ScoreRepository
	publisher  port.EventPublisher
	metrics    MetricsRecorder
	logger     *slog.Logger
	now        func() time.Time
	partitions []chan streamItem
	wg         sync.WaitGroup
	mu         sync.RWMutex
	sequence   atomic.Int64
	runID      uuid.UUID
	running    bool
}

// NewScoreStream creates a stream with the given number of partitions. The
// context tracker lives as long as the stream.
func NewScoreStream(
	engine *service.Engine,
	profiles *service.ProfileStore,
	repo port.ScoreRepository,
	publisher port.EventPublisher,
	metrics MetricsRecorder,
	logger *slog.Logger,
	partitions int,
) *ScoreStream {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if partitions <= 0 {
		partitions = 1
	}
	return &ScoreStream{
		engine:     engine,
		profiles:   profiles,
		tracker:    engine.NewContextTracker(),
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		partitions: make([]chan streamItem, partitions),
		runID:      uuid.New(),
	}
}

// RunID identifies the rows produced by this stream.
func (s *ScoreStream) RunID() uuid.UUID { return s.runID }

// Running reports whether the stream accepts submissions.
func (s *ScoreStream) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Start launches the partition workers. ctx is used for persistence and
// publishing; Stop ends the workers.
func (s *ScoreStream) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	for i := range s.partitions {
		ch := make(chan streamItem, 64)
		s.partitions[i] = ch
		s.wg.Add(1)
		go s.work(ctx, ch)
	}
	s.running = true
	s.logger.Info("score stream started", "run_id", s.runID, "partitions", len(s.partitions))
}

// streamItem is a queued transaction and the channel its outcome is
// reported on.
type streamItem struct {
	done chan error
	txn  model.Transaction
}

// Submit validates in, hands it to the worker owning its account and waits
// for the outcome. A malformed transaction is rejected immediately with
// model.ErrMalformedTransaction, an out-of-order one with model.ErrOutOfOrder.
// A persistence failure is returned as is and leaves the account context
// unchanged, so the transaction can be submitted again.
func (s *ScoreStream) Submit(ctx context.Context, in dto.TransactionInput) error {
	seq := int(s.sequence.Add(1) - 1)
	txn, err := in.ToModel(seq)
	if err != nil {
		s.metrics.RecordRejected(ctx, rejectionReason(err))
		return fmt.Errorf("transaction %d rejected: %w", seq, err)
	}

	item := streamItem{txn: txn, done: make(chan error, 1)}
	if err := s.enqueue(ctx, item); err != nil {
		return err
	}
	select {
	case err := <-item.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ScoreStream) enqueue(ctx context.Context, item streamItem) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ErrStreamStopped
	}
	select {
	case s.partitions[partitionOf(item.txn.AccountKey, len(s.partitions))] <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the partitions and waits until every submitted transaction has
// been scored.
func (s *ScoreStream) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	for _, ch := range s.partitions {
		close(ch)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("score stream stopped", "run_id", s.runID, "accounts", s.tracker.Accounts())
}

func partitionOf(accountKey string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountKey))
	return int(h.Sum32() % uint32(n))
}

func (s *ScoreStream) work(ctx context.Context, ch <-chan streamItem) {
	defer s.wg.Done()
	for item := range ch {
		item.done <- s.process(ctx, item.txn)
	}
}

// process scores txn and commits the account context only once the row is
// persisted.
func (s *ScoreStream) process(ctx context.Context, txn model.Transaction) error {
	sess := s.tracker.Session(txn.AccountKey)
	defer sess.Close()

	row, err := scoreInSession(s.engine, s.profiles, sess, s.runID, txn, s.now())
	if err != nil {
		s.metrics.RecordRejected(ctx, rejectionReason(err))
		level := slog.LevelError
		if isRejection(err) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "transaction rejected",
			"account_key", txn.AccountKey,
			"sequence", txn.Sequence,
			"error", err,
		)
		return fmt.Errorf("transaction %d rejected: %w", txn.Sequence, err)
	}

	if s.repo != nil {
		if err := s.repo.SaveBatch(ctx, []model.ScoredTransaction{row}); err != nil {
			s.logger.Error("failed to save scored transaction", "account_key", row.AccountKey, "error", err)
			return fmt.Errorf("failed to save scored transaction: %w", err)
		}
	}
	sess.Commit()
	sess.Close()

	s.metrics.RecordScored(ctx, row.Result.RiskBand.String(), row.Result.NormalizedScore)
	if s.publisher != nil {
		if e, ok := highRiskEvent(row); ok {
			if err := s.publisher.Publish(ctx, e); err != nil {
				s.logger.Error("failed to publish high risk event", "account_key", row.AccountKey, "error", err)
			}
		}
	}
	return nil
}
