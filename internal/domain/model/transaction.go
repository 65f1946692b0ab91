package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Upstream feature names consumed by the indicator catalog.
const (
	FeatureTxnCount24h         = "txn_count_24h"
	FeatureTxnSum24h           = "txn_sum_24h"
	FeatureUniquePayees24h     = "unique_payees_24h"
	FeaturePayeeUsageCount     = "payee_usage_count"
	FeatureAccountAgeDays      = "acct_creation_days_ago"
	FeatureActivityDaysAgo     = "activity_days_ago"
	FeatureLargeTxns2h         = "large_txns_2h"
	FeatureKnownNameNewAccount = "is_known_name_new_account"
)

// Features holds the precomputed per-transaction fields produced by upstream
// feature engineering. Booleans are stored as 0/1.
type Features map[string]float64

// Value returns the named feature and whether it was supplied.
func (f Features) Value(name string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f[name]
	return v, ok
}

// Flag reports whether the named boolean feature is present and set.
func (f Features) Flag(name string) bool {
	v, ok := f.Value(name)
	return ok && v != 0
}

// UnmarshalJSON accepts numbers, booleans and numeric strings. Null and
// unparseable values are dropped so that the field counts as missing.
func (f *Features) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Features, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case float64:
			out[name] = val
		case bool:
			if val {
				out[name] = 1
			} else {
				out[name] = 0
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(val)) {
			case "true":
				out[name] = 1
			case "false":
				out[name] = 0
			default:
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
					out[name] = parsed
				}
			}
		}
	}
	*f = out
	return nil
}

// Transaction is a single engineered transaction record. It is immutable once
// constructed.
type Transaction struct {
	Timestamp        time.Time
	Amount           decimal.Decimal
	Features         Features
	AccountKey       string
	PartyKey         string
	Currency         string
	Channel          string
	CountryCode      string
	PriorCountries   []string
	CurrentCountries []string
	Sequence         int
	ApprovalFlag     bool
}

// Validate checks the fields the engine cannot default.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.AccountKey) == "" {
		return fmt.Errorf("%w: account key is required", ErrMalformedTransaction)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrMalformedTransaction)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative, got %s", ErrMalformedTransaction, t.Amount)
	}
	return nil
}

// ParseAmount parses a textual amount. An empty or unparseable value yields
// ErrMalformedTransaction.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrMalformedTransaction)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", ErrMalformedTransaction, s)
	}
	return amount, nil
}

// ParseTimestamp parses an RFC 3339 timestamp, falling back to the
// "2006-01-02 15:04:05" layout used by spreadsheet exports (read as UTC).
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", ErrMalformedTransaction)
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation(time.DateTime, s, time.UTC); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedTransaction, s)
}
