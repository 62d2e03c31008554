package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/uaparse"
)

// ClickStore persists click events and click counters.
type ClickStore interface {
	InsertClickEvent(ctx context.Context, event *model.ClickEvent) error
	IncrementClickCount(ctx context.Context, shortCode string) error
}

// GeoResolver maps client IPs to locations.
type GeoResolver interface {
	GetLocation(ctx context.Context, ip string) (*model.GeoLocation, error)
}

// ClickPublisher fires click events at the analytics queue.
type ClickPublisher interface {
	PublishClickEvent(ctx context.Context, queue string, event any) error
}

// ClickInput carries the request-scoped facts about one click.
type ClickInput struct {
	ShortCode string
	IPAddress string
	UserAgent string
	Referrer  string
}

// ClickService ingests clicks. Every step is best-effort: a failure is
// logged and counted but never reaches the visitor, who already has their
// redirect.
type ClickService struct {
	store     ClickStore
	geo       GeoResolver
	publisher ClickPublisher
	queue     string
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewClickService creates a ClickService publishing to the given queue.
func NewClickService(store ClickStore, geo GeoResolver, publisher ClickPublisher, queue string, rec metrics.Recorder, logger *slog.Logger) *ClickService {
	return &ClickService{
		store:     store,
		geo:       geo,
		publisher: publisher,
		queue:     queue,
		metrics:   rec,
		logger:    logger.With("component", "click_service"),
	}
}

// TrackClick records one click: bumps the link's counter, composes the
// enriched event, persists it, and publishes it for the analytics consumer.
// Callers run it on a context detached from the originating request.
func (s *ClickService) TrackClick(ctx context.Context, input ClickInput) {
	if err := s.store.IncrementClickCount(ctx, input.ShortCode); err != nil {
		s.logger.Warn("failed to increment click count", "shortCode", input.ShortCode, "error", err)
	}

	event := s.buildEvent(ctx, input)

	stored := true
	if err := s.store.InsertClickEvent(ctx, event); err != nil {
		stored = false
		s.metrics.IncClickDropped("store")
		s.logger.Error("failed to persist click event", "shortCode", input.ShortCode, "error", err)
	}

	if err := s.publisher.PublishClickEvent(ctx, s.queue, event); err != nil {
		s.metrics.IncClickDropped("queue")
		s.logger.Error("failed to publish click event", "shortCode", input.ShortCode, "error", err)
	}

	if stored {
		s.metrics.IncClickTracked()
	}
}

// buildEvent assembles the click event. Geo resolution is tolerated to fail;
// the geo group is then absent as a whole.
func (s *ClickService) buildEvent(ctx context.Context, input ClickInput) *model.ClickEvent {
	ua := uaparse.Parse(input.UserAgent)

	event := &model.ClickEvent{
		ID:             ulid.Make().String(),
		ClickedAt:      time.Now().UTC(),
		ShortCode:      input.ShortCode,
		IPAddressHash:  HashIP(input.IPAddress),
		UserAgent:      input.UserAgent,
		ReferrerURL:    input.Referrer,
		ReferrerDomain: uaparse.ExtractDomain(input.Referrer),
		DeviceType:     ua.DeviceType,
		BrowserName:    ua.BrowserName,
		BrowserVersion: ua.BrowserVersion,
		OSName:         ua.OSName,
		OSVersion:      ua.OSVersion,
		IsBot:          ua.IsBot,
	}

	location, err := s.geo.GetLocation(ctx, input.IPAddress)
	if err != nil {
		s.logger.Warn("geo lookup failed", "shortCode", input.ShortCode, "error", err)
		return event
	}

	event.CountryCode = location.CountryCode
	event.City = location.City
	event.Region = location.Region
	event.Lat = location.Lat
	event.Lon = location.Lon

	return event
}

// HashIP returns the lowercase hex SHA-256 of an IP address. The raw address
// never leaves the process.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
