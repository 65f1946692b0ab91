package model

import (
	"fmt"
	"time"
)

// AccountContext is the running state of one account within a scoring run.
// It reflects only transactions of that account scored before the current one.
type AccountContext struct {
	LastSeenAt  time.Time
	PartiesSeen map[string]struct{}
	Observed    int
}

// NewAccountContext returns the first-sight context for an account.
func NewAccountContext(lastSeenAt time.Time) *AccountContext {
	return &AccountContext{
		LastSeenAt:  lastSeenAt,
		PartiesSeen: make(map[string]struct{}),
	}
}

// KnowsParty reports whether the account already transacted with party.
func (c *AccountContext) KnowsParty(party string) bool {
	_, ok := c.PartiesSeen[party]
	return ok
}

// CheckOrder returns ErrOutOfOrder when ts precedes the last observed
// transaction. An account with no observed transactions accepts any time.
func (c *AccountContext) CheckOrder(ts time.Time) error {
	if c.Observed > 0 && ts.Before(c.LastSeenAt) {
		return fmt.Errorf("%w: %s is before last seen %s",
			ErrOutOfOrder, ts.Format(time.RFC3339), c.LastSeenAt.Format(time.RFC3339))
	}
	return nil
}

// Observe records a successfully scored transaction.
func (c *AccountContext) Observe(txn Transaction) error {
	if err := c.CheckOrder(txn.Timestamp); err != nil {
		return err
	}
	c.LastSeenAt = txn.Timestamp
	if txn.PartyKey != "" {
		c.PartiesSeen[txn.PartyKey] = struct{}{}
	}
	c.Observed++
	return nil
}

// Clone returns a deep copy.
func (c *AccountContext) Clone() *AccountContext {
	parties := make(map[string]struct{}, len(c.PartiesSeen))
	for p := range c.PartiesSeen {
		parties[p] = struct{}{}
	}
	return &AccountContext{
		LastSeenAt:  c.LastSeenAt,
		PartiesSeen: parties,
		Observed:    c.Observed,
	}
}
