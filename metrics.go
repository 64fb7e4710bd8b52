package selections

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/goliatone/go-selections"

// engineMetrics holds the OpenTelemetry instruments recorded by the engine.
type engineMetrics struct {
	reconciles       metric.Int64Counter
	changed          metric.Int64Counter
	noopTriggers     metric.Int64Counter
	broadcastTargets metric.Int64Counter
	ruleEvaluations  metric.Int64Counter
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}
	m := &engineMetrics{}
	var err error

	m.reconciles, err = meter.Int64Counter(
		"selections_reconcile_total",
		metric.WithDescription("Total number of reconciled page snapshots"),
	)
	if err != nil {
		return nil, fmt.Errorf("selections: create reconcile counter: %w", err)
	}

	m.changed, err = meter.Int64Counter(
		"selections_reconcile_changed_total",
		metric.WithDescription("Total number of reconciled snapshots flagged as changed"),
	)
	if err != nil {
		return nil, fmt.Errorf("selections: create changed counter: %w", err)
	}

	m.noopTriggers, err = meter.Int64Counter(
		"selections_noop_triggers_total",
		metric.WithDescription("Total number of events discarded as no-op triggers"),
	)
	if err != nil {
		return nil, fmt.Errorf("selections: create no-op counter: %w", err)
	}

	m.broadcastTargets, err = meter.Int64Counter(
		"selections_broadcast_targets_total",
		metric.WithDescription("Total number of component targets aligned by broadcasts"),
	)
	if err != nil {
		return nil, fmt.Errorf("selections: create broadcast counter: %w", err)
	}

	m.ruleEvaluations, err = meter.Int64Counter(
		"selections_rule_evaluations_total",
		metric.WithDescription("Total number of override rule evaluations"),
	)
	if err != nil {
		return nil, fmt.Errorf("selections: create rule counter: %w", err)
	}
	return m, nil
}

func (m *engineMetrics) recordReconcile(ctx context.Context, page PageID, changed bool) {
	attrs := metric.WithAttributes(attribute.String("page", string(page)))
	m.reconciles.Add(ctx, 1, attrs)
	if changed {
		m.changed.Add(ctx, 1, attrs)
	}
}

func (m *engineMetrics) recordNoOp(ctx context.Context, op string) {
	m.noopTriggers.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *engineMetrics) recordBroadcast(ctx context.Context, op string, targets int) {
	if targets == 0 {
		return
	}
	m.broadcastTargets.Add(ctx, int64(targets), metric.WithAttributes(attribute.String("op", op)))
}

func (m *engineMetrics) recordRule(ctx context.Context, engine string, err error) {
	m.ruleEvaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.Bool("error", err != nil),
	))
}
