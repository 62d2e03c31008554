package model

import "errors"

// Dashboard RPC reply statuses produced by the analytics service.
const (
	DashboardStatusSuccess = "success"
	DashboardStatusError   = "error"
	DashboardStatusLimited = "limited"
)

// DashboardRequest is the RPC request published to the dashboard queue.
type DashboardRequest struct {
	UserID int `json:"user_id"`
}

// Validate rejects requests for non-positive owners.
func (r *DashboardRequest) Validate() error {
	if r.UserID <= 0 {
		return errors.New("user_id must be greater than 0")
	}
	return nil
}

// TopLink is one entry of the dashboard's top-links ranking.
type TopLink struct {
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	Clicks      int64  `json:"clicks"`
	Status      string `json:"status"`
}

// StatLink is one day of click counts.
type StatLink struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// RecentClick is one recent click event, present on some replies.
type RecentClick struct {
	ShortCode   string  `json:"short_code"`
	ClickedAt   string  `json:"clicked_at"`
	CountryCode *string `json:"country_code,omitempty"`
	City        *string `json:"city,omitempty"`
	DeviceType  *string `json:"device_type,omitempty"`
	BrowserName *string `json:"browser_name,omitempty"`
	IsBot       bool    `json:"is_bot"`
}

// DashboardResponse is the RPC reply from the analytics service. The reply
// carries at most 5 top links and at most 10 recent clicks.
type DashboardResponse struct {
	UserID       int           `json:"user_id"`
	TotalClicks  int64         `json:"total_clicks"`
	TotalLinks   int64         `json:"total_links"`
	UniqVisitors int64         `json:"uniq_visitors"`
	TopLinks     []TopLink     `json:"top_links"`
	StatLinks    []StatLink    `json:"stat_links"`
	RecentClicks []RecentClick `json:"recent_clicks,omitempty"`
	Status       string        `json:"status"`
	Message      *string       `json:"message,omitempty"`
}

// IsError reports whether the analytics service answered with an error.
func (r *DashboardResponse) IsError() bool {
	return r.Status == DashboardStatusError
}

// IsLimited reports whether the reply was truncated by the producer.
func (r *DashboardResponse) IsLimited() bool {
	return r.Status == DashboardStatusLimited
}

// ErrorMessage returns the producer's message, or empty when absent.
func (r *DashboardResponse) ErrorMessage() string {
	if r.Message != nil {
		return *r.Message
	}
	return ""
}
