package usecase

import (
	"context"
	"errors"

	"github.com/bibbank/fraudscore/internal/domain/model"
)

// MetricsRecorder receives scoring outcomes. observability.ScoringMetrics
// implements it.
type MetricsRecorder interface {
	RecordScored(ctx context.Context, band string, normalized float64)
	RecordRejected(ctx context.Context, reason string)
	RecordAborted(ctx context.Context, accounts int)
}

type noopMetrics struct{}

func (noopMetrics) RecordScored(context.Context, string, float64) {}
func (noopMetrics) RecordRejected(context.Context, string)        {}
func (noopMetrics) RecordAborted(context.Context, int)            {}

// rejectionReason maps a rejection error onto a low-cardinality label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, model.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, model.ErrMalformedTransaction):
		return "malformed"
	default:
		return "other"
	}
}
