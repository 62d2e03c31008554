package geoip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/cache"
	"github.com/hoplink/hoplink/internal/model"
)

type fakeCache struct {
	entries    map[string]*model.GeoLocation
	getErr     error
	setCalls   int
	refreshed  []string
	lastSetKey string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.GeoLocation)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) error {
	if f.getErr != nil {
		return f.getErr
	}
	loc, ok := f.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	*dest.(*model.GeoLocation) = *loc
	return nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.setCalls++
	f.lastSetKey = key
	f.entries[key] = value.(*model.GeoLocation)
	return nil
}

func (f *fakeCache) RefreshTTL(_ context.Context, key string, _ time.Duration) error {
	f.refreshed = append(f.refreshed, key)
	return nil
}

func newResolver(t *testing.T, baseURL string, fc *fakeCache) *Resolver {
	t.Helper()
	return New(fc, cache.NewKeys("hoplink"), baseURL, time.Second, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIsPrivateIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"localhost", true},
		{"10.0.0.5", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.254", true},
		{"192.168.1.1", true},
		{"0.0.0.0", true},
		{"not-an-ip", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"172.32.0.1", false},
		{"203.0.113.7", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.ip, func(t *testing.T) {
			t.Parallel()

			if got := IsPrivateIP(tt.ip); got != tt.want {
				t.Errorf("IsPrivateIP(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestGetLocation_PrivateBypass(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("external service must not be called for private addresses")
	}))
	defer srv.Close()

	fc := newFakeCache()
	r := newResolver(t, srv.URL, fc)

	got, err := r.GetLocation(context.Background(), "192.168.1.10")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got.Country != "Local" || got.CountryCode != "XX" || got.City != "Localhost" {
		t.Errorf("unexpected sentinel: %+v", got)
	}
	if fc.setCalls != 0 {
		t.Error("private lookups must not touch the cache")
	}
}

func TestGetLocation_CacheHitRefreshesTTL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("external service must not be called on a cache hit")
	}))
	defer srv.Close()

	fc := newFakeCache()
	keys := cache.NewKeys("hoplink")
	fc.entries[keys.GeoIP("8.8.8.8")] = &model.GeoLocation{Country: "United States", CountryCode: "US"}

	r := newResolver(t, srv.URL, fc)

	got, err := r.GetLocation(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got.CountryCode != "US" {
		t.Errorf("CountryCode = %q, want US", got.CountryCode)
	}
	if len(fc.refreshed) != 1 || fc.refreshed[0] != keys.GeoIP("8.8.8.8") {
		t.Errorf("cache hit should refresh the entry TTL, refreshed = %v", fc.refreshed)
	}
}

func TestGetLocation_MissFetchesAndCaches(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/8.8.8.8" {
			t.Errorf("path = %q, want /8.8.8.8", req.URL.Path)
		}
		if req.URL.Query().Get("fields") == "" {
			t.Error("fields query parameter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","country":"United States","countryCode":"US","city":"Mountain View","lat":37.4,"lon":-122.1,"query":"8.8.8.8"}`))
	}))
	defer srv.Close()

	fc := newFakeCache()
	r := newResolver(t, srv.URL, fc)

	got, err := r.GetLocation(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got.Country != "United States" || got.City != "Mountain View" {
		t.Errorf("unexpected location: %+v", got)
	}
	if fc.setCalls != 1 {
		t.Errorf("setCalls = %d, want 1", fc.setCalls)
	}
	if fc.lastSetKey != cache.NewKeys("hoplink").GeoIP("8.8.8.8") {
		t.Errorf("cached under wrong key: %q", fc.lastSetKey)
	}
}

func TestGetLocation_LookupFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"non-200 response",
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			"failed status payload",
			func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
			},
		},
		{
			"malformed payload",
			func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{not json`))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			fc := newFakeCache()
			r := newResolver(t, srv.URL, fc)

			_, err := r.GetLocation(context.Background(), "8.8.8.8")
			if !errors.Is(err, apperr.ErrExternalService) {
				t.Errorf("error = %v, want EXTERNAL_SERVICE_ERROR", err)
			}
			if fc.setCalls != 0 {
				t.Error("failed lookups must not be cached")
			}
		})
	}
}

func TestGetLocation_CacheFaultFallsThrough(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"success","country":"Australia","countryCode":"AU","query":"1.1.1.1"}`))
	}))
	defer srv.Close()

	fc := newFakeCache()
	fc.getErr = errors.New("connection refused")
	r := newResolver(t, srv.URL, fc)

	got, err := r.GetLocation(context.Background(), "1.1.1.1")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got.CountryCode != "AU" {
		t.Errorf("CountryCode = %q, want AU", got.CountryCode)
	}
}
