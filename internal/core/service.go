package core

import (
	"context"
	"log/slog"
	"time"

	"crmcore/internal/metrics"
	"crmcore/internal/store"
)

// DefaultMaxPageSize caps listing page sizes when configuration does not.
const DefaultMaxPageSize = 100

// Service is the entry point for all mutation, query, and import operations.
// It holds no entity state; persistence semantics live in the injected store
// and every operation runs inside a store transaction.
type Service struct {
	store   store.Store
	metrics *metrics.Recorder
	limiter *ImportLimiter
	log     *slog.Logger

	defaultPageSize int
	maxPageSize     int
}

// Options configures optional Service collaborators. Zero values select
// working defaults so tests can build a Service from just a store.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder

	// Import limiter sizing; see NewImportLimiter for the defaults.
	MaxConcurrentImports int
	ImportMaxWait        time.Duration

	DefaultPageSize int
	MaxPageSize     int
}

// NewService builds a Service around the given store.
func NewService(st store.Store, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	defaultPageSize := opts.DefaultPageSize
	if defaultPageSize <= 0 {
		defaultPageSize = store.DefaultPageSize
	}
	maxPageSize := opts.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}

	return &Service{
		store:           st,
		metrics:         opts.Metrics,
		limiter:         NewImportLimiter(opts.MaxConcurrentImports, opts.ImportMaxWait),
		log:             log,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Limiter exposes the import limiter for shutdown draining and health
// reporting.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// observe reports one finished operation to the metrics recorder. Call it
// deferred with a pointer to the named error return.
func (s *Service) observe(op string, start time.Time, err *error) {
	s.metrics.Observe(op, *err == nil, time.Since(start))
}

// clampPage fills page-size defaults and enforces the configured ceiling.
func (s *Service) clampPage(page store.PageRequest) store.PageRequest {
	if page.PageSize <= 0 {
		page.PageSize = s.defaultPageSize
	}
	if page.PageSize > s.maxPageSize {
		page.PageSize = s.maxPageSize
	}
	return page
}
