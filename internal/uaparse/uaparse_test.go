package uaparse

import (
	"reflect"
	"testing"
)

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneUA        = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	ipadUA          = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	googlebotUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestParse_DeviceType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"desktop chrome", chromeDesktopUA, DeviceDesktop},
		{"iphone", iphoneUA, DeviceMobile},
		{"ipad", ipadUA, DeviceTablet},
		{"empty", "", DeviceUnknown},
		{"garbage", "not-a-real-agent", DeviceUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.ua)
			if got.DeviceType != tt.want {
				t.Errorf("Parse(%q).DeviceType = %q, want %q", tt.ua, got.DeviceType, tt.want)
			}
		})
	}
}

func TestParse_BotDetection(t *testing.T) {
	t.Parallel()

	if !Parse(googlebotUA).IsBot {
		t.Error("Googlebot should be flagged as a bot")
	}
	if Parse(chromeDesktopUA).IsBot {
		t.Error("desktop Chrome should not be flagged as a bot")
	}
}

func TestParse_BrowserAndOS(t *testing.T) {
	t.Parallel()

	got := Parse(chromeDesktopUA)

	if got.BrowserName != "Chrome" {
		t.Errorf("BrowserName = %q, want Chrome", got.BrowserName)
	}
	if got.OSName != "Windows" {
		t.Errorf("OSName = %q, want Windows", got.OSName)
	}
	if got.BrowserVersion == "" {
		t.Error("BrowserVersion should not be empty")
	}
}

func TestParse_Pure(t *testing.T) {
	t.Parallel()

	first := Parse(iphoneUA)
	second := Parse(iphoneUA)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse is not deterministic: %+v != %+v", first, second)
	}
}

func TestExtractDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"https with path", "https://news.ycombinator.com/item?id=1", "news.ycombinator.com"},
		{"http root", "http://example.com/", "example.com"},
		{"no scheme", "example.com/page", "example.com"},
		{"no path", "https://example.com", "example.com"},
		{"with port", "https://example.com:8080/x", "example.com:8080"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractDomain(tt.in); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
