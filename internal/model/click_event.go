package model

import "time"

// ClickEvent is an append-only record describing one resolution of a short
// code. The raw client IP is never stored; only its SHA-256 hash is.
type ClickEvent struct {
	ID             string    `bson:"_id" json:"id"`
	ClickedAt      time.Time `bson:"clickedAt" json:"clicked_at"`
	ShortCode      string    `bson:"shortCode" json:"short_code"`
	IPAddressHash  string    `bson:"ipAddressHash" json:"ip_address_hash"`
	UserAgent      string    `bson:"userAgent,omitempty" json:"user_agent,omitempty"`
	ReferrerURL    string    `bson:"referrerUrl,omitempty" json:"referrer_url,omitempty"`
	ReferrerDomain string    `bson:"referrerDomain,omitempty" json:"referrer_domain,omitempty"`

	DeviceType     string `bson:"deviceType" json:"device_type"`
	BrowserName    string `bson:"browserName,omitempty" json:"browser_name,omitempty"`
	BrowserVersion string `bson:"browserVersion,omitempty" json:"browser_version,omitempty"`
	OSName         string `bson:"osName,omitempty" json:"os_name,omitempty"`
	OSVersion      string `bson:"osVersion,omitempty" json:"os_version,omitempty"`
	IsBot          bool   `bson:"isBot" json:"is_bot"`

	// Geo fields: either the whole group is present or the whole group is
	// absent.
	CountryCode string  `bson:"countryCode,omitempty" json:"country_code,omitempty"`
	City        string  `bson:"city,omitempty" json:"city,omitempty"`
	Region      string  `bson:"region,omitempty" json:"region,omitempty"`
	Lat         float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lon         float64 `bson:"lon,omitempty" json:"lon,omitempty"`
}

// CollectionName returns the store collection for click events.
func (ClickEvent) CollectionName() string {
	return "click_events"
}
