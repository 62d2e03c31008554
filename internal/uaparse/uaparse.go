// Package uaparse provides pure user-agent and referrer parsing.
package uaparse

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Device types reported by Parse.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// Result holds the parsed user-agent fields.
type Result struct {
	DeviceType     string
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	IsBot          bool
}

// Parse extracts device, browser, OS and bot information from a raw
// user-agent string. Parse is deterministic; equal inputs yield equal
// outputs.
func Parse(raw string) Result {
	ua := useragent.Parse(raw)

	return Result{
		DeviceType:     deviceType(ua),
		BrowserName:    ua.Name,
		BrowserVersion: ua.Version,
		OSName:         ua.OS,
		OSVersion:      ua.OSVersion,
		IsBot:          ua.Bot,
	}
}

// deviceType picks the first true of mobile, tablet, desktop.
func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return DeviceMobile
	case ua.Tablet:
		return DeviceTablet
	case ua.Desktop:
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}

// ExtractDomain returns the host part of a referrer URL: the scheme prefix
// is stripped and everything before the first slash is kept. Empty input
// yields empty output.
func ExtractDomain(url string) string {
	if url == "" {
		return ""
	}

	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	if i := strings.IndexByte(url, '/'); i >= 0 {
		return url[:i]
	}
	return url
}
