package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/cache"
	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/urlx"
)

// RedirectStore is the persistence surface of the redirect hot path.
type RedirectStore interface {
	FindByShortCode(ctx context.Context, shortCode string) (*model.LinkProjection, error)
}

// RedirectCache is the distributed-cache surface of the redirect hot path.
type RedirectCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
	SetInvalidationFlag(ctx context.Context, key string, ttl time.Duration) error
}

// RedirectService resolves short codes to their targets through a two-tier
// read-through cache: process-local memory, then Redis, then the store.
// Cache faults degrade to the next tier; dead links are never cached.
type RedirectService struct {
	store    RedirectStore
	cache    RedirectCache
	keys     cache.Keys
	local    *gocache.Cache
	cacheTTL time.Duration
	flagTTL  time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewRedirectService creates a RedirectService. localTTL bounds the
// process-local tier; cacheTTL the distributed tier; flagTTL the dashboard
// invalidation flags raised on every resolution.
func NewRedirectService(
	store RedirectStore,
	cacheDriver RedirectCache,
	keys cache.Keys,
	localTTL, cacheTTL, flagTTL time.Duration,
	rec metrics.Recorder,
	logger *slog.Logger,
) *RedirectService {
	return &RedirectService{
		store:    store,
		cache:    cacheDriver,
		keys:     keys,
		local:    gocache.New(localTTL, 2*localTTL),
		cacheTTL: cacheTTL,
		flagTTL:  flagTTL,
		metrics:  rec,
		logger:   logger.With("component", "redirect_service"),
	}
}

// Resolve returns the live projection for a short code. The returned
// OriginalURL is normalized. Expired and inactive links surface their own
// error kinds and never enter either cache tier.
func (s *RedirectService) Resolve(ctx context.Context, shortCode string) (*model.LinkProjection, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRedirectDuration(time.Since(start))
	}()

	key := s.keys.URL(shortCode)

	if cached, ok := s.local.Get(key); ok {
		proj := cached.(*model.LinkProjection)
		if err := s.checkLive(shortCode, proj); err != nil {
			s.local.Delete(key)
			return nil, err
		}
		s.metrics.IncRedirectCacheHit("memory")
		s.raiseInvalidationFlag(ctx, proj.OwnerID)
		return s.normalized(proj), nil
	}

	var cached model.LinkProjection
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		if err := s.checkLive(shortCode, &cached); err != nil {
			return nil, err
		}
		s.metrics.IncRedirectCacheHit("redis")
		if err := s.cache.RefreshTTL(ctx, key, s.cacheTTL); err != nil {
			s.logger.Warn("failed to refresh url TTL", "shortCode", shortCode, "error", err)
		}
		s.local.SetDefault(key, &cached)
		s.raiseInvalidationFlag(ctx, cached.OwnerID)
		return s.normalized(&cached), nil

	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.IncRedirectCacheMiss()

	default:
		// Cache infrastructure fault: serve from the store.
		s.logger.Warn("cache unavailable, falling through to store", "shortCode", shortCode, "error", err)
	}

	proj, err := s.store.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, proj, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache url projection", "shortCode", shortCode, "error", err)
	}
	s.local.SetDefault(key, proj)
	s.raiseInvalidationFlag(ctx, proj.OwnerID)

	return s.normalized(proj), nil
}

// checkLive re-validates a cached projection; entries can outlive the link's
// expiry within their TTL window.
func (s *RedirectService) checkLive(shortCode string, proj *model.LinkProjection) error {
	if !proj.IsActive {
		return apperr.ErrURLInactive.WithContext("shortCode", shortCode)
	}
	if proj.ExpiresAt != nil && proj.ExpiresAt.Before(time.Now()) {
		return apperr.ErrURLExpired.WithContext("shortCode", shortCode)
	}
	return nil
}

// raiseInvalidationFlag marks the owner's dashboard as stale. Best-effort:
// the dashboard path falls back to its own TTL when the flag is lost.
func (s *RedirectService) raiseInvalidationFlag(ctx context.Context, ownerID int) {
	if ownerID <= 0 {
		return
	}
	flagKey := s.keys.DashboardInvalidation(ownerID)
	if err := s.cache.SetInvalidationFlag(ctx, flagKey, s.flagTTL); err != nil {
		s.logger.Warn("failed to raise dashboard invalidation flag", "ownerId", ownerID, "error", err)
	}
}

// normalized returns a copy of the projection with its URL normalized, so
// records written before a normalization rule change still redirect
// canonically.
func (s *RedirectService) normalized(proj *model.LinkProjection) *model.LinkProjection {
	out := *proj
	if n, err := urlx.Normalize(out.OriginalURL); err == nil {
		out.OriginalURL = n
	}
	return &out
}
