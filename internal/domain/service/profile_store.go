package service

import (
	"context"
	"fmt"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/port"
)

// ProfileStore is a read-only lookup of account profiles. It is populated once
// and never mutated afterwards, so concurrent reads need no locking.
type ProfileStore struct {
	profiles map[string]model.AccountProfile
}

// NewProfileStore validates and indexes profiles by account key. Duplicate
// keys are an error.
func NewProfileStore(profiles []model.AccountProfile) (*ProfileStore, error) {
	s := &ProfileStore{profiles: make(map[string]model.AccountProfile, len(profiles))}
	for _, p := range profiles {
		normalized, err := p.Normalize()
		if err != nil {
			return nil, err
		}
		if _, dup := s.profiles[normalized.AccountKey]; dup {
			return nil, fmt.Errorf("duplicate profile for account %s", normalized.AccountKey)
		}
		s.profiles[normalized.AccountKey] = normalized
	}
	return s, nil
}

// LoadProfileStore reads all profiles from src.
func LoadProfileStore(ctx context.Context, src port.ProfileSource) (*ProfileStore, error) {
	profiles, err := src.LoadProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account profiles: %w", err)
	}
	return NewProfileStore(profiles)
}

// Lookup returns the profile of accountKey or, when none is stored, the
// default profile using fallbackCurrency.
func (s *ProfileStore) Lookup(accountKey, fallbackCurrency string) model.AccountProfile {
	if s != nil {
		if p, ok := s.profiles[accountKey]; ok {
			return p
		}
	}
	return model.DefaultProfile(accountKey, fallbackCurrency)
}

// Has reports whether a profile is stored for accountKey.
func (s *ProfileStore) Has(accountKey string) bool {
	if s == nil {
		return false
	}
	_, ok := s.profiles[accountKey]
	return ok
}

// Len returns the number of stored profiles.
func (s *ProfileStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.profiles)
}
