package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "workoutgen"

// Metrics holds the generation counters. Instruments come from the global
// meter provider, so they are no-ops until Initialize has run.
type Metrics struct {
	generated          metric.Int64Counter
	generationFailures metric.Int64Counter
	exercisesCreated   metric.Int64Counter
	generationLatency  metric.Float64Histogram
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	generated, err := meter.Int64Counter("workouts.generated",
		metric.WithDescription("Workouts generated and persisted"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("workouts.generation_failures",
		metric.WithDescription("Generate requests that failed after validation"))
	if err != nil {
		return nil, err
	}
	created, err := meter.Int64Counter("exercises.created",
		metric.WithDescription("Catalog exercises created by the resolver"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("workouts.generation_duration",
		metric.WithDescription("Time spent waiting on the AI provider"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		generated:          generated,
		generationFailures: failures,
		exercisesCreated:   created,
		generationLatency:  latency,
	}, nil
}

// The recording methods accept a nil receiver so services can run without metrics.

func (m *Metrics) WorkoutGenerated(ctx context.Context, model string, durationMS int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("ai.model", model))
	m.generated.Add(ctx, 1, attrs)
	m.generationLatency.Record(ctx, float64(durationMS), attrs)
}

func (m *Metrics) GenerationFailed(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.generationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) ExerciseCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.exercisesCreated.Add(ctx, 1)
}
