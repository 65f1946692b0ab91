package model

import (
	"fmt"
	"math"
)

// AccountProfile is the precomputed behavioral baseline of an account.
type AccountProfile struct {
	AccountKey      string
	TypicalCurrency string
	MeanAmount      float64
	StdAmount       float64
}

// DefaultProfile is used for accounts without a stored baseline. A unit
// standard deviation around zero keeps the amount-deviation test defined.
func DefaultProfile(accountKey, currency string) AccountProfile {
	return AccountProfile{
		AccountKey:      accountKey,
		TypicalCurrency: currency,
		MeanAmount:      0,
		StdAmount:       1,
	}
}

// Normalize validates a profile loaded from an external source. Unknown
// statistics (NaN or infinite) fall back to the default baseline.
func (p AccountProfile) Normalize() (AccountProfile, error) {
	if p.AccountKey == "" {
		return AccountProfile{}, fmt.Errorf("profile account key is required")
	}
	if p.StdAmount < 0 {
		return AccountProfile{}, fmt.Errorf("profile %s: std amount must not be negative, got %v", p.AccountKey, p.StdAmount)
	}
	if !isFinite(p.MeanAmount) || !isFinite(p.StdAmount) {
		p.MeanAmount = 0
		p.StdAmount = 1
	}
	return p, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
