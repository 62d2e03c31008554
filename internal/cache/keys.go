package cache

import "fmt"

// defaultKeyPrefix is used when no application name is configured.
const defaultKeyPrefix = "hoplink"

// Keys is the single source of truth for cache key strings.
// Every key has the form {appPrefix}:{family}:{id}.
type Keys struct {
	prefix string
}

// NewKeys creates a key namer. The prefix defaults to the service name.
func NewKeys(appName string) Keys {
	if appName == "" {
		appName = defaultKeyPrefix
	}
	return Keys{prefix: appName}
}

// URL names the cached link projection for a short code.
func (k Keys) URL(shortCode string) string {
	return fmt.Sprintf("%s:url:%s", k.prefix, shortCode)
}

// Dashboard names the cached dashboard payload for an owner.
func (k Keys) Dashboard(ownerID int) string {
	return fmt.Sprintf("%s:dashboard:%d", k.prefix, ownerID)
}

// DashboardInvalidation names the dashboard invalidation flag for an owner.
func (k Keys) DashboardInvalidation(ownerID int) string {
	return fmt.Sprintf("%s:dashboard_invalid:%d", k.prefix, ownerID)
}

// GeoIP names the cached geolocation for an IP.
func (k Keys) GeoIP(ip string) string {
	return fmt.Sprintf("%s:geoip:%s", k.prefix, ip)
}
