// Package dto defines the request and response bodies of the HTTP API.
package dto

import (
	"time"

	"github.com/hoplink/hoplink/internal/model"
)

// CreateLinkRequest is the body of POST /api/url/create.
type CreateLinkRequest struct {
	OriginalURL string     `json:"original_url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// LinkResponse describes one link in API responses.
type LinkResponse struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	ClickCount  int64      `json:"click_count"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewLinkResponse maps a link record to its API shape.
func NewLinkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		CustomAlias: link.CustomAlias,
		Title:       link.Title,
		Description: link.Description,
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive,
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
	}
}

// RedirectResponse is the body of GET /r/{shortUrl}. The service resolves;
// the edge performs the actual redirect.
type RedirectResponse struct {
	OriginalURL string `json:"originalUrl"`
}

// LinkInfoResponse is the body of GET /api/info/{shortUrl}.
type LinkInfoResponse struct {
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// DashboardResponse is the body of GET /api/dashboard.
type DashboardResponse struct {
	UserID       int                 `json:"user_id"`
	TotalLink    int64               `json:"total_link"`
	TotalClick   int64               `json:"total_click"`
	UniqVisitors int64               `json:"uniq_visitors"`
	TopLinks     []model.TopLink     `json:"top_links"`
	StatLinks    []model.StatLink    `json:"stat_links"`
	RecentClicks []model.RecentClick `json:"recent_clicks,omitempty"`
	Limited      bool                `json:"limited"`
}

// NewDashboardResponse maps the analytics reply to its API shape.
func NewDashboardResponse(reply *model.DashboardResponse) DashboardResponse {
	return DashboardResponse{
		UserID:       reply.UserID,
		TotalLink:    reply.TotalLinks,
		TotalClick:   reply.TotalClicks,
		UniqVisitors: reply.UniqVisitors,
		TopLinks:     reply.TopLinks,
		StatLinks:    reply.StatLinks,
		RecentClicks: reply.RecentClicks,
		Limited:      reply.IsLimited(),
	}
}

// CollisionMetricsResponse is the body of GET /api/url/metrics/collisions.
type CollisionMetricsResponse struct {
	TotalCollisions int64 `json:"totalCollisions"`
}
