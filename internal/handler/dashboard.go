package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/auth"
	"github.com/hoplink/hoplink/internal/handler/dto"
	"github.com/hoplink/hoplink/internal/model"
)

// DashboardGetter serves per-owner dashboards.
type DashboardGetter interface {
	GetDashboard(ctx context.Context, ownerID int) (*model.DashboardResponse, error)
}

// DashboardHandler serves the authenticated dashboard API.
type DashboardHandler struct {
	dashboards DashboardGetter
	logger     *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboards DashboardGetter, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboards: dashboards,
		logger:     logger,
	}
}

// Get handles GET /api/dashboard. The owner is always the authenticated
// user; there is no way to read another owner's dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	reply, err := h.dashboards.GetDashboard(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "dashboard", dto.NewDashboardResponse(reply))
}
