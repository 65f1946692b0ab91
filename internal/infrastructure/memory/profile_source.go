package memory

import (
	"context"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/port"
)

var _ port.ProfileSource = ProfileSource(nil)

// ProfileSource serves a fixed set of profiles.
type ProfileSource []model.AccountProfile

func (s ProfileSource) LoadProfiles(_ context.Context) ([]model.AccountProfile, error) {
	out := make([]model.AccountProfile, len(s))
	copy(out, s)
	return out, nil
}
