package infrastructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// NewResolverFromConfig builds the configured resolver backend, wrapped in the
// collection metadata cache when caching is enabled. The returned func closes
// the cache and is never nil.
func NewResolverFromConfig(config *domain.Config, logger *zap.Logger) (domain.Resolver, func() error, error) {
	noop := func() error { return nil }

	var resolver domain.Resolver
	switch config.Resolver.Backend {
	case domain.ResolverYouTube:
		resolver = NewYouTubeResolver(logger)
	case domain.ResolverYTDLP:
		resolver = NewYTDLPResolver(&config.Resolver, config.Logging.LogsDir, logger)
	default:
		return nil, noop, fmt.Errorf("unknown resolver backend: %q", config.Resolver.Backend)
	}

	if !config.Cache.Enabled {
		return resolver, noop, nil
	}

	cache, err := OpenCollectionCache(config.Cache)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open collection cache: %w", err)
	}

	// Entries past the TTL are never served again
	removed, err := cache.Purge(config.Cache.TTL)
	if err != nil {
		logger.Warn("Collection cache purge failed", zap.Error(err))
	}

	logger.Info("Collection cache enabled",
		zap.String("backend", config.Cache.Backend),
		zap.String("path", config.Cache.Path),
		zap.Duration("ttl", config.Cache.TTL),
		zap.Int64("purged", removed))
	return NewCachingResolver(resolver, cache, config.Cache.TTL, logger), cache.Close, nil
}
