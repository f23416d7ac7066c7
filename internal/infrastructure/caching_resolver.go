package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// CachingResolver caches ResolveCollection results of another Resolver.
// Items and streams are always resolved live.
type CachingResolver struct {
	domain.Resolver
	cache  domain.CollectionCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingResolver wraps resolver with a collection metadata cache
func NewCachingResolver(resolver domain.Resolver, cache domain.CollectionCache, ttl time.Duration, logger *zap.Logger) *CachingResolver {
	return &CachingResolver{
		Resolver: resolver,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// ResolveCollection serves fresh cache hits and stores live results.
// Cache failures are logged and never fail the resolution.
func (r *CachingResolver) ResolveCollection(ctx context.Context, ref string) (*domain.CollectionMetadata, error) {
	meta, err := r.cache.Get(ref, r.ttl)
	if err != nil {
		r.logger.Warn("Collection cache read failed", zap.String("reference", ref), zap.Error(err))
	} else if meta != nil {
		r.logger.Debug("Collection cache hit",
			zap.String("reference", ref),
			zap.Int("items", len(meta.Items)))
		return meta, nil
	}

	meta, err = r.Resolver.ResolveCollection(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Put(ref, meta); err != nil {
		r.logger.Warn("Collection cache write failed", zap.String("reference", ref), zap.Error(err))
	}
	return meta, nil
}

// OpenCollectionCache opens the configured cache backend
func OpenCollectionCache(config domain.CacheConfig) (domain.CollectionCache, error) {
	switch config.Backend {
	case domain.CacheSQLite:
		return NewSQLiteCollectionCache(config.Path)
	case domain.CacheBolt:
		return NewBoltCollectionCache(config.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", config.Backend)
	}
}
