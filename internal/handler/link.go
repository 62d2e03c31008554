package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/auth"
	"github.com/hoplink/hoplink/internal/handler/dto"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/service"
)

// LinkCreator authors new links.
type LinkCreator interface {
	CreateLink(ctx context.Context, input service.CreateLinkInput) (*model.Link, error)
}

// CollisionCounter exposes the allocator's collision counter.
type CollisionCounter interface {
	CollisionCount() int64
}

// LinkHandler serves the authenticated link authoring API.
type LinkHandler struct {
	creator    LinkCreator
	collisions CollisionCounter
	logger     *slog.Logger
}

// NewLinkHandler creates a LinkHandler.
func NewLinkHandler(creator LinkCreator, collisions CollisionCounter, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		creator:    creator,
		collisions: collisions,
		logger:     logger,
	}
}

// Create handles POST /api/url/create.
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	var req dto.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.ErrInvalidInput.WithMessage("request body is not valid JSON"))
		return
	}

	link, err := h.creator.CreateLink(r.Context(), service.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     claims.UserID,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "link created", dto.NewLinkResponse(link))
}

// CollisionMetrics handles GET /api/url/metrics/collisions.
func (h *LinkHandler) CollisionMetrics(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "collision metrics", dto.CollisionMetricsResponse{
		TotalCollisions: h.collisions.CollisionCount(),
	})
}
