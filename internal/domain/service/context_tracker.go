package service

import (
	"sync"
	"time"

	"github.com/bibbank/fraudscore/internal/domain/model"
)

// ContextTracker owns the running context of every account seen in a scoring
// run. Each account has its own lock; accounts never contend with each other.
type ContextTracker struct {
	slots    map[string]*accountSlot
	lookback time.Duration
	mu       sync.Mutex
}

type accountSlot struct {
	ctx *model.AccountContext
	mu  sync.Mutex
}

// NewContextTracker creates a tracker whose first-sight contexts start
// lookback before the first transaction of the account.
func NewContextTracker(lookback time.Duration) *ContextTracker {
	return &ContextTracker{
		slots:    make(map[string]*accountSlot),
		lookback: lookback,
	}
}

func (t *ContextTracker) slot(accountKey string) *accountSlot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[accountKey]
	if !ok {
		s = &accountSlot{}
		t.slots[accountKey] = s
	}
	return s
}

// Session acquires exclusive access to the context of accountKey. The caller
// must Close the session; only committed changes become visible.
func (t *ContextTracker) Session(accountKey string) *AccountSession {
	s := t.slot(accountKey)
	s.mu.Lock()
	return &AccountSession{tracker: t, slot: s}
}

// Get returns a snapshot of the context of accountKey, creating the
// first-sight context anchored at at when the account is new.
func (t *ContextTracker) Get(accountKey string, at time.Time) model.AccountContext {
	sess := t.Session(accountKey)
	defer sess.Close()

	snapshot := sess.Context(at).Clone()
	sess.Commit()
	return *snapshot
}

// Update records txn as scored for its account. It fails with
// model.ErrOutOfOrder, leaving the context unchanged, when txn precedes the
// last recorded transaction.
func (t *ContextTracker) Update(txn model.Transaction) error {
	sess := t.Session(txn.AccountKey)
	defer sess.Close()

	if err := sess.Observe(txn); err != nil {
		return err
	}
	sess.Commit()
	return nil
}

// Accounts returns the number of accounts with a context.
func (t *ContextTracker) Accounts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// AccountSession is an exclusive, transactional view of one account context.
// It is not safe for concurrent use.
type AccountSession struct {
	tracker *ContextTracker
	slot    *accountSlot
	working *model.AccountContext
	closed  bool
}

// Context returns the working context, creating it on first use. For an
// account never seen before LastSeenAt is at minus the tracker lookback.
func (s *AccountSession) Context(at time.Time) *model.AccountContext {
	if s.working == nil {
		if s.slot.ctx != nil {
			s.working = s.slot.ctx.Clone()
		} else {
			s.working = model.NewAccountContext(at.Add(-s.tracker.lookback))
		}
	}
	return s.working
}

// Observe applies txn to the working context.
func (s *AccountSession) Observe(txn model.Transaction) error {
	return s.Context(txn.Timestamp).Observe(txn)
}

// Commit publishes the working context to the tracker.
func (s *AccountSession) Commit() {
	if s.working != nil {
		s.slot.ctx = s.working.Clone()
	}
}

// Close releases the account. Uncommitted changes are discarded. Close is
// idempotent.
func (s *AccountSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.working = nil
	s.slot.mu.Unlock()
}
