package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/handler/dto"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/service"
)

// maxShortCodeLength bounds the accepted short code path parameter.
const maxShortCodeLength = 50

// Resolver resolves a short code to its live projection.
type Resolver interface {
	Resolve(ctx context.Context, shortCode string) (*model.LinkProjection, error)
}

// Tracker ingests one click on a detached context.
type Tracker interface {
	TrackClick(ctx context.Context, input service.ClickInput)
}

// RedirectHandler serves the redirect hot path and link info lookups.
type RedirectHandler struct {
	resolver     Resolver
	tracker      Tracker
	trackTimeout time.Duration
	logger       *slog.Logger
}

// NewRedirectHandler creates a RedirectHandler. trackTimeout bounds the
// detached click-tracking context spawned after each redirect.
func NewRedirectHandler(resolver Resolver, tracker Tracker, trackTimeout time.Duration, logger *slog.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver:     resolver,
		tracker:      tracker,
		trackTimeout: trackTimeout,
		logger:       logger,
	}
}

// Redirect handles GET /r/{shortUrl}. The original URL is returned as JSON;
// the caller performs the actual redirect. Click tracking runs afterwards on
// a context detached from the request.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortUrl")
	if err := validateShortCode(shortCode); err != nil {
		writeError(w, err)
		return
	}

	proj, err := h.resolver.Resolve(r.Context(), shortCode)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=0")
	writeSuccess(w, http.StatusOK, "resolved", dto.RedirectResponse{
		OriginalURL: proj.OriginalURL,
	})

	input := service.ClickInput{
		ShortCode: shortCode,
		IPAddress: clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
		Referrer:  r.Header.Get("Referer"),
	}

	// The request context dies with the response; tracking gets its own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.trackTimeout)
		defer cancel()
		h.tracker.TrackClick(ctx, input)
	}()
}

// Info handles GET /api/info/{shortUrl}. Lookups are not tracked as clicks.
func (h *RedirectHandler) Info(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortUrl")
	if err := validateShortCode(shortCode); err != nil {
		writeError(w, err)
		return
	}

	proj, err := h.resolver.Resolve(r.Context(), shortCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "link info", dto.LinkInfoResponse{
		ShortCode:   shortCode,
		OriginalURL: proj.OriginalURL,
		IsActive:    proj.IsActive,
		ExpiresAt:   proj.ExpiresAt,
	})
}

// validateShortCode bounds the path parameter before any backend work.
func validateShortCode(shortCode string) error {
	if shortCode == "" {
		return apperr.ErrInvalidInput.WithMessage("short code is required")
	}
	if len(shortCode) > maxShortCodeLength {
		return apperr.ErrInvalidInput.WithMessage("short code is too long")
	}
	return nil
}

// clientIP returns the originating client address, honoring the forwarding
// headers set by the edge proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
