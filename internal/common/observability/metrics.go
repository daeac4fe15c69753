package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	jobCounter       otelmetric.Int64Counter
	jobDuration      otelmetric.Float64Histogram
	analysisCounter  otelmetric.Int64Counter
	confidenceScores otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	analysisCounter, _ := meter.Int64Counter(
		"advisor.analyses",
		otelmetric.WithDescription("Analyses produced, by crop and best market"),
	)

	confidenceScores, _ := meter.Float64Histogram(
		"advisor.confidence",
		otelmetric.WithDescription("Confidence score of produced analyses"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		jobCounter:       jobCounter,
		jobDuration:      jobDuration,
		analysisCounter:  analysisCounter,
		confidenceScores: confidenceScores,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordAnalysis records one completed analysis and its confidence score.
func (o *Observability) RecordAnalysis(ctx context.Context, crop, bestMarket, forecastSource string, confidence float64) {
	attrs := otelmetric.WithAttributes(
		attribute.String("crop", crop),
		attribute.String("best_market", bestMarket),
		attribute.String("forecast_source", forecastSource),
	)
	if o.analysisCounter != nil {
		o.analysisCounter.Add(ctx, 1, attrs)
	}
	if o.confidenceScores != nil {
		o.confidenceScores.Record(ctx, confidence, attrs)
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
