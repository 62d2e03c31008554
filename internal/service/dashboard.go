package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/cache"
	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/model"
)

// DashboardCache is the cache surface of the dashboard read path.
type DashboardCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
}

// RPCCaller performs one request/reply exchange over the broker.
type RPCCaller interface {
	Call(ctx context.Context, queue string, payload any, timeout time.Duration) ([]byte, error)
}

// DashboardService serves per-owner dashboards computed by the analytics
// worker, cached until the redirect path raises an invalidation flag.
type DashboardService struct {
	cache      DashboardCache
	rpc        RPCCaller
	keys       cache.Keys
	queue      string
	rpcTimeout time.Duration
	cacheTTL   time.Duration
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewDashboardService creates a DashboardService calling the given queue.
func NewDashboardService(
	cacheDriver DashboardCache,
	rpc RPCCaller,
	keys cache.Keys,
	queue string,
	rpcTimeout, cacheTTL time.Duration,
	rec metrics.Recorder,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		cache:      cacheDriver,
		rpc:        rpc,
		keys:       keys,
		queue:      queue,
		rpcTimeout: rpcTimeout,
		cacheTTL:   cacheTTL,
		metrics:    rec,
		logger:     logger.With("component", "dashboard_service"),
	}
}

// GetDashboard returns the owner's dashboard. A raised invalidation flag
// forces a refresh through the analytics worker; otherwise a cached payload
// is served and its TTL refreshed. A "limited" reply is advisory and is
// cached like a success.
func (s *DashboardService) GetDashboard(ctx context.Context, ownerID int) (*model.DashboardResponse, error) {
	req := model.DashboardRequest{UserID: ownerID}
	if err := req.Validate(); err != nil {
		return nil, apperr.ErrInvalidInput.Wrap(err)
	}

	dashboardKey := s.keys.Dashboard(ownerID)
	flagKey := s.keys.DashboardInvalidation(ownerID)

	forceRefresh, err := s.cache.Exists(ctx, flagKey)
	if err != nil {
		s.logger.Warn("failed to read invalidation flag", "ownerId", ownerID, "error", err)
	}
	if forceRefresh {
		if err := s.cache.Delete(ctx, flagKey); err != nil {
			s.logger.Warn("failed to clear invalidation flag", "ownerId", ownerID, "error", err)
		}
	}

	if !forceRefresh {
		var cached model.DashboardResponse
		err := s.cache.Get(ctx, dashboardKey, &cached)
		if err == nil {
			if err := s.cache.RefreshTTL(ctx, dashboardKey, s.cacheTTL); err != nil {
				s.logger.Warn("failed to refresh dashboard TTL", "ownerId", ownerID, "error", err)
			}
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("dashboard cache unavailable", "ownerId", ownerID, "error", err)
		}
	}

	response, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardKey, response, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", "ownerId", ownerID, "error", err)
	}

	return response, nil
}

// fetch asks the analytics worker for a fresh dashboard.
func (s *DashboardService) fetch(ctx context.Context, req model.DashboardRequest) (*model.DashboardResponse, error) {
	start := time.Now()

	body, err := s.rpc.Call(ctx, s.queue, &req, s.rpcTimeout)
	if err != nil {
		s.metrics.IncRPCFailure()
		// A worker that never answers is an external-service failure from
		// the caller's point of view; the timeout stays as the cause.
		if errors.Is(err, apperr.ErrRequestTimeout) {
			return nil, apperr.ErrExternalService.Wrap(err).
				WithMessage("analytics service did not reply in time").
				WithContext("queue", s.queue)
		}
		return nil, err
	}
	s.metrics.ObserveRPCDuration(time.Since(start))

	var response model.DashboardResponse
	if err := json.Unmarshal(body, &response); err != nil {
		s.metrics.IncRPCFailure()
		return nil, apperr.ErrExternalService.Wrap(err).
			WithContext("queue", s.queue).
			WithContext("operation", "decode dashboard reply")
	}

	if response.IsError() {
		s.metrics.IncRPCFailure()
		msg := response.ErrorMessage()
		if msg == "" {
			msg = "analytics service reported an error"
		}
		return nil, apperr.ErrExternalService.WithMessage(msg).
			WithContext("ownerId", req.UserID)
	}

	if response.IsLimited() {
		s.logger.Info("dashboard reply truncated by producer", "ownerId", req.UserID)
	}

	return &response, nil
}
