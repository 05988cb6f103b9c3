package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ua      string
		device  string
		browser string
	}{
		{
			name:    "desktop chrome",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			device:  "desktop",
			browser: "chrome",
		},
		{
			name:    "iphone safari",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			device:  "mobile",
			browser: "safari",
		},
		{
			name:    "android tablet firefox",
			ua:      "Mozilla/5.0 (Android 13; Tablet; rv:120.0) Gecko/120.0 Firefox/120.0",
			device:  "tablet",
			browser: "firefox",
		},
		{
			name:    "chromium edge reports chrome first",
			ua:      "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 Edg/120.0",
			device:  "desktop",
			browser: "chrome",
		},
		{
			name:    "edge without chrome token",
			ua:      "Mozilla/5.0 (Windows NT 10.0) Edg/18.0",
			device:  "desktop",
			browser: "edge",
		},
		{
			name:    "empty",
			ua:      "",
			device:  "desktop",
			browser: "other",
		},
		{
			name:    "curl",
			ua:      "curl/8.4.0",
			device:  "desktop",
			browser: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.device, ClassifyDevice(tt.ua))
			assert.Equal(t, tt.browser, ClassifyBrowser(tt.ua))
		})
	}
}
