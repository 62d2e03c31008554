// Package model defines domain entities shared by both services.
package model

import "time"

// LinkMetadata holds descriptive fields derived from the original URL.
type LinkMetadata struct {
	Domain   string `bson:"domain,omitempty" json:"domain,omitempty"`
	Protocol string `bson:"protocol,omitempty" json:"protocol,omitempty"`
	Path     string `bson:"path,omitempty" json:"path,omitempty"`
}

// Link is the authoritative record for a shortened URL.
type Link struct {
	ID          string       `bson:"_id" json:"id"`
	ShortCode   string       `bson:"shortCode" json:"shortCode"`
	OriginalURL string       `bson:"originalUrl" json:"originalUrl"`
	CustomAlias string       `bson:"customAlias,omitempty" json:"customAlias,omitempty"`
	OwnerID     int          `bson:"ownerId" json:"ownerId"`
	ClickCount  int64        `bson:"clickCount" json:"clickCount"`
	ExpiresAt   *time.Time   `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	IsActive    bool         `bson:"isActive" json:"isActive"`
	IsDeleted   bool         `bson:"isDeleted" json:"-"`
	Title       string       `bson:"title,omitempty" json:"title,omitempty"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	Metadata    LinkMetadata `bson:"metadata" json:"metadata"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// IsExpired reports whether the link has time-based expiry in the past.
func (l *Link) IsExpired() bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(time.Now())
}

// LinkProjection is the 4-field subset of Link served on the redirect hot
// path. Nothing else is admitted into the cache payload.
type LinkProjection struct {
	OriginalURL string     `bson:"originalUrl" json:"originalUrl"`
	IsActive    bool       `bson:"isActive" json:"isActive"`
	OwnerID     int        `bson:"ownerId" json:"ownerId"`
	ExpiresAt   *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// CollectionName returns the store collection for links.
func (Link) CollectionName() string {
	return "links"
}
