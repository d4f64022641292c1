package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"golang.org/x/sync/singleflight"
)

// ProcessLookup finds a workflow process id by its code.
type ProcessLookup interface {
	GetProcessByCode(ctx context.Context, code string) (string, error)
}

// ProcessCache stores resolved process ids.
type ProcessCache interface {
	Get(ctx context.Context, code string) (string, bool, error)
	Set(ctx context.Context, code, id string) error
}

// CacheObserver records cache hits and misses.
type CacheObserver interface {
	ObserveCacheLookup(hit bool)
}

// ProcessResolver maps workflow process codes to ids. Concurrent lookups of
// the same code share one call to the workflow service.
type ProcessResolver struct {
	lookup   ProcessLookup
	cache    ProcessCache
	observer CacheObserver
	group    singleflight.Group
	logger   *slog.Logger
}

// NewProcessResolver creates a resolver. cache and observer may be nil.
func NewProcessResolver(lookup ProcessLookup, cache ProcessCache, observer CacheObserver, logger *slog.Logger) *ProcessResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessResolver{
		lookup:   lookup,
		cache:    cache,
		observer: observer,
		logger:   logger.With(slog.String("component", "process_resolver")),
	}
}

// Resolve returns the process id for code. Cache failures fall back to the
// workflow service.
func (r *ProcessResolver) Resolve(ctx context.Context, code string) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, code)
		switch {
		case err != nil:
			log.Warn("process cache lookup failed", slog.String("process_code", code), slog.String("error", err.Error()))
		case ok:
			r.observe(true)
			return id, nil
		default:
			r.observe(false)
		}
	}

	v, err, shared := r.group.Do(code, func() (any, error) {
		id, err := r.lookup.GetProcessByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if r.cache != nil {
			if err := r.cache.Set(ctx, code, id); err != nil {
				log.Warn("process cache store failed", slog.String("process_code", code), slog.String("error", err.Error()))
			}
		}
		return id, nil
	})
	if err != nil {
		return "", fmt.Errorf("resolve workflow process %q: %w", code, err)
	}

	log.Debug("workflow process resolved", slog.String("process_code", code), slog.Bool("shared", shared))
	return v.(string), nil
}

func (r *ProcessResolver) observe(hit bool) {
	if r.observer != nil {
		r.observer.ObserveCacheLookup(hit)
	}
}
