package service

import (
	"strings"

	"github.com/dinerozz/tracking-backend/internal/entity"
)

// ClassifyDevice buckets a user agent by substring. "mobile" is checked
// before "tablet".
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return entity.DeviceMobile
	case strings.Contains(ua, "tablet"):
		return entity.DeviceTablet
	default:
		return entity.DeviceDesktop
	}
}

// ClassifyBrowser checks chrome, firefox, safari (without chrome) and edg in
// that order. Chromium-based Edge reports "Chrome" too and lands on chrome.
func ClassifyBrowser(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "chrome"):
		return entity.BrowserChrome
	case strings.Contains(ua, "firefox"):
		return entity.BrowserFirefox
	case strings.Contains(ua, "safari"):
		return entity.BrowserSafari
	case strings.Contains(ua, "edg"):
		return entity.BrowserEdge
	default:
		return entity.BrowserOther
	}
}
