package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "fraudscore"

const meterName = "github.com/bibbank/fraudscore"

// InitMetrics wires an OpenTelemetry meter provider to a dedicated Prometheus
// registry and returns the provider together with the /metrics handler.
func InitMetrics() (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
		promexporter.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// ScoringMetrics records scoring outcomes.
type ScoringMetrics struct {
	scored     metric.Int64Counter
	rejected   metric.Int64Counter
	aborted    metric.Int64Counter
	normalized metric.Float64Histogram
}

// NewScoringMetrics creates the scoring instruments on provider.
func NewScoringMetrics(provider metric.MeterProvider) (*ScoringMetrics, error) {
	meter := provider.Meter(meterName)

	scored, err := meter.Int64Counter("fraudscore_transactions_scored_total",
		metric.WithDescription("Transactions scored, by risk band."))
	if err != nil {
		return nil, fmt.Errorf("failed to create scored counter: %w", err)
	}
	rejected, err := meter.Int64Counter("fraudscore_transactions_rejected_total",
		metric.WithDescription("Transactions rejected before scoring, by reason."))
	if err != nil {
		return nil, fmt.Errorf("failed to create rejected counter: %w", err)
	}
	aborted, err := meter.Int64Counter("fraudscore_accounts_aborted_total",
		metric.WithDescription("Accounts whose scoring was interrupted by cancellation."))
	if err != nil {
		return nil, fmt.Errorf("failed to create aborted counter: %w", err)
	}
	normalized, err := meter.Float64Histogram("fraudscore_normalized_score",
		metric.WithDescription("Distribution of normalized scores."),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 41, 50, 60, 71, 80, 90, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to create score histogram: %w", err)
	}

	return &ScoringMetrics{scored: scored, rejected: rejected, aborted: aborted, normalized: normalized}, nil
}

// RecordScored counts one scored transaction.
func (m *ScoringMetrics) RecordScored(ctx context.Context, band string, normalized float64) {
	m.scored.Add(ctx, 1, metric.WithAttributes(attribute.String("band", band)))
	m.normalized.Record(ctx, normalized)
}

// RecordRejected counts one rejected transaction.
func (m *ScoringMetrics) RecordRejected(ctx context.Context, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordAborted counts aborted accounts.
func (m *ScoringMetrics) RecordAborted(ctx context.Context, accounts int) {
	m.aborted.Add(ctx, int64(accounts))
}
