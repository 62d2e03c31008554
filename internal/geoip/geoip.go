// Package geoip resolves client IPs to locations via an external lookup
// service, with a private-range bypass and per-IP caching.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/cache"
	"github.com/hoplink/hoplink/internal/model"
)

// lookupFields is the field set requested from the lookup service.
const lookupFields = "status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,query"

// CacheDriver is the subset of the cache driver the resolver needs.
type CacheDriver interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
}

// Resolver looks up geolocation for public IPs.
type Resolver struct {
	client   *http.Client
	cache    CacheDriver
	keys     cache.Keys
	baseURL  string
	timeout  time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger
}

// New creates a Resolver. timeout bounds each external call; cacheTTL is the
// lifetime of cached locations.
func New(cacheDriver CacheDriver, keys cache.Keys, baseURL string, timeout, cacheTTL time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: timeout},
		cache:    cacheDriver,
		keys:     keys,
		baseURL:  baseURL,
		timeout:  timeout,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "geoip"),
	}
}

// lookupResponse is the external service's payload.
type lookupResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Query       string  `json:"query"`
}

// GetLocation resolves an IP to a location. Private and loopback addresses
// short-circuit to a sentinel without any I/O. Public addresses are served
// from cache when possible; a hit refreshes the entry's TTL.
func (r *Resolver) GetLocation(ctx context.Context, ip string) (*model.GeoLocation, error) {
	if IsPrivateIP(ip) {
		return model.LocalGeoLocation(), nil
	}

	key := r.keys.GeoIP(ip)

	var cached model.GeoLocation
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		if err := r.cache.RefreshTTL(ctx, key, r.cacheTTL); err != nil {
			r.logger.Warn("failed to refresh geoip TTL", "ip", ip, "error", err)
		}
		return &cached, nil
	}

	location, err := r.lookup(ctx, ip)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, location, r.cacheTTL); err != nil {
		r.logger.Warn("failed to cache geoip result", "ip", ip, "error", err)
	}

	return location, nil
}

// lookup performs the external call bounded by the per-call timeout.
func (r *Resolver) lookup(ctx context.Context, ip string) (*model.GeoLocation, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s?fields=%s", r.baseURL, ip, lookupFields)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.ErrExternalService.Wrap(err).WithContext("ip", ip)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperr.ErrExternalService.Wrap(err).WithContext("ip", ip)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.ErrExternalService.
			WithContext("ip", ip).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.ErrExternalService.Wrap(err).WithContext("ip", ip)
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.ErrExternalService.Wrap(err).WithContext("ip", ip)
	}

	if payload.Status != "success" {
		return nil, apperr.ErrExternalService.
			WithContext("ip", ip).
			WithContext("reason", payload.Message)
	}

	return &model.GeoLocation{
		Country:     payload.Country,
		CountryCode: payload.CountryCode,
		Region:      payload.Region,
		RegionName:  payload.RegionName,
		City:        payload.City,
		Zip:         payload.Zip,
		Lat:         payload.Lat,
		Lon:         payload.Lon,
		Timezone:    payload.Timezone,
		ISP:         payload.ISP,
		Org:         payload.Org,
		AS:          payload.AS,
		Query:       payload.Query,
	}, nil
}

// IsPrivateIP reports whether an address is loopback or in a private range
// (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16, or their IPv6 equivalents).
func IsPrivateIP(ip string) bool {
	if ip == "localhost" {
		return true
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		// Unparseable addresses never reach the external service.
		return true
	}

	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified()
}
