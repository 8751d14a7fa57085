package storage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/julianstephens/habitkeeper/internal/errors"
)

// Metrics holds the store and ledger collectors.
type Metrics struct {
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	PropagatedDays prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg, if non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitkeeper_store_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"backend", "op", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "habitkeeper_store_operation_duration_seconds",
				Help:    "Duration of document store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "op"},
		),
		PropagatedDays: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "habitkeeper_propagated_days_total",
				Help: "Total number of forward days rewritten after editing a past day",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.PropagatedDays)
	}
	return m
}

type instrumented struct {
	Provider
	m *Metrics
}

// Instrument wraps p so every document operation is counted and timed.
func Instrument(p Provider, m *Metrics) Provider {
	if m == nil {
		return p
	}
	return &instrumented{Provider: p, m: m}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	backend := s.Provider.Name()
	status := "ok"
	if err != nil {
		status = "error"
		if apperrors.Is(err, ErrNotFound) {
			status = "not_found"
		}
	}
	s.m.operations.WithLabelValues(backend, op, status).Inc()
	s.m.duration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Create(ctx context.Context, col CollectionPath, fields Fields) (string, error) {
	start := time.Now()
	id, err := s.Provider.Create(ctx, col, fields)
	s.observe("create", start, err)
	return id, err
}

func (s *instrumented) Get(ctx context.Context, doc DocumentPath) (Fields, error) {
	start := time.Now()
	f, err := s.Provider.Get(ctx, doc)
	s.observe("get", start, err)
	return f, err
}

func (s *instrumented) List(ctx context.Context, col CollectionPath) ([]Document, error) {
	start := time.Now()
	docs, err := s.Provider.List(ctx, col)
	s.observe("list", start, err)
	return docs, err
}

func (s *instrumented) UpdatePartial(ctx context.Context, doc DocumentPath, updates map[string]any) error {
	start := time.Now()
	err := s.Provider.UpdatePartial(ctx, doc, updates)
	s.observe("update", start, err)
	return err
}

func (s *instrumented) Subscribe(ctx context.Context, col CollectionPath, onChange func([]Document)) (func(), error) {
	start := time.Now()
	stop, err := s.Provider.Subscribe(ctx, col, onChange)
	s.observe("subscribe", start, err)
	return stop, err
}

// Unwrap returns the backend beneath an Instrument decorator.
func Unwrap(p Provider) Provider {
	if in, ok := p.(*instrumented); ok {
		return in.Provider
	}
	return p
}
