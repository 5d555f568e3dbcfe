// Package compliance provides a fail-closed audit publisher for identity mapping changes.
//
// Events are written synchronously, normally inside the same transaction as
// the change they describe. If the write fails the caller's operation must fail.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/requestcontext"
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher over store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes event. Timestamp, category and request id are
// filled from ctx when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}
	if event.AccountID.IsNil() && event.ActorID == "" {
		return fmt.Errorf("compliance event requires AccountID or ActorID")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.persistFailures.Inc()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "compliance audit failed",
				"action", event.Action,
				"account_id", event.AccountID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.persistDuration.Observe(time.Since(start).Seconds())
		p.metrics.eventsEmitted.Inc()
	}
	return nil
}

// Metrics counts compliance writes.
type Metrics struct {
	eventsEmitted   prometheus.Counter
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
}

// NewMetrics registers the compliance publisher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "casbinder_audit_compliance_events_total",
			Help: "Compliance audit events persisted",
		}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "casbinder_audit_compliance_failures_total",
			Help: "Compliance audit events that failed to persist",
		}),
		persistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casbinder_audit_compliance_persist_seconds",
			Help:    "Time spent persisting compliance audit events",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
