// Package service implements the application's use cases on top of the
// store, cache, broker and external resolvers.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/urlx"
)

// Allocator assigns a short code to a link and persists it.
type Allocator interface {
	Allocate(ctx context.Context, link *model.Link) error
	AllocateCustom(ctx context.Context, link *model.Link, alias string) error
}

// CreateLinkInput carries the caller-supplied fields for a new link.
type CreateLinkInput struct {
	OriginalURL string
	CustomAlias string
	Title       string
	Description string
	OwnerID     int
	ExpiresAt   *time.Time
}

// LinkService authors new links.
type LinkService struct {
	allocator  Allocator
	defaultTTL time.Duration
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewLinkService creates a LinkService. defaultTTL is applied when the
// caller does not choose an expiry.
func NewLinkService(allocator Allocator, defaultTTL time.Duration, rec metrics.Recorder, logger *slog.Logger) *LinkService {
	return &LinkService{
		allocator:  allocator,
		defaultTTL: defaultTTL,
		metrics:    rec,
		logger:     logger.With("component", "link_service"),
	}
}

// CreateLink normalizes the target URL, composes the link record, and
// persists it under a generated short code or the caller's custom alias.
func (s *LinkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if input.OriginalURL == "" {
		return nil, apperr.ErrMissingRequiredField.WithContext("field", "originalUrl")
	}

	normalized, err := urlx.Normalize(input.OriginalURL)
	if err != nil {
		return nil, apperr.ErrInvalidFormat.Wrap(err).
			WithMessage("original URL is not a valid http or https URL")
	}

	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		t := time.Now().UTC().Add(s.defaultTTL)
		expiresAt = &t
	} else if expiresAt.Before(time.Now()) {
		return nil, apperr.ErrInvalidInput.WithMessage("expiry must be in the future")
	}

	link := &model.Link{
		ID:          ulid.Make().String(),
		OriginalURL: normalized,
		OwnerID:     input.OwnerID,
		ClickCount:  0,
		ExpiresAt:   expiresAt,
		IsActive:    true,
		Title:       input.Title,
		Description: input.Description,
		Metadata:    metadataFor(normalized),
	}

	if input.CustomAlias != "" {
		err = s.allocator.AllocateCustom(ctx, link, input.CustomAlias)
	} else {
		err = s.allocator.Allocate(ctx, link)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncLinkCreated()
	s.logger.Info("link created",
		"id", link.ID,
		"shortCode", link.ShortCode,
		"ownerId", link.OwnerID,
	)

	return link, nil
}

func metadataFor(normalized string) model.LinkMetadata {
	meta := urlx.DeriveMetadata(normalized)
	return model.LinkMetadata{
		Domain:   meta.Domain,
		Protocol: meta.Protocol,
		Path:     meta.Path,
	}
}
