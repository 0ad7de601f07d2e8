package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "supportflow"

// Metrics holds all SupportFlow metric instruments.
type Metrics struct {
	RequestsTotal   metric.Int64Counter
	Clarifications  metric.Int64Counter
	Escalations     metric.Int64Counter
	PlanFailures    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	RequestCost     metric.Float64Histogram
	TokensUsed      metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RequestsTotal, err = meter.Int64Counter("supportflow.requests.total",
		metric.WithDescription("Number of support requests processed"))
	if err != nil {
		return nil, err
	}

	m.Clarifications, err = meter.Int64Counter("supportflow.requests.clarifications",
		metric.WithDescription("Number of requests answered with a clarification question"))
	if err != nil {
		return nil, err
	}

	m.Escalations, err = meter.Int64Counter("supportflow.requests.escalations",
		metric.WithDescription("Number of requests escalated to a human agent"))
	if err != nil {
		return nil, err
	}

	m.PlanFailures, err = meter.Int64Counter("supportflow.plans.failures",
		metric.WithDescription("Number of execution plans that did not complete"))
	if err != nil {
		return nil, err
	}

	m.RequestDuration, err = meter.Float64Histogram("supportflow.request.duration_seconds",
		metric.WithDescription("End-to-end request duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.RequestCost, err = meter.Float64Histogram("supportflow.request.cost_usd",
		metric.WithDescription("LLM cost per request in USD"))
	if err != nil {
		return nil, err
	}

	m.TokensUsed, err = meter.Int64Counter("supportflow.tokens.total",
		metric.WithDescription("Total LLM tokens consumed"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
