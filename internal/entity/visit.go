// entity/visit.go
package entity

import (
	"github.com/gofrs/uuid"
	"time"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"

	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserSafari  = "safari"
	BrowserEdge    = "edge"
	BrowserOther   = "other"
)

// MaxVisitDurationSeconds caps accumulated view duration (24 hours).
const MaxVisitDurationSeconds = 86400

type Visit struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ContentRef      *string   `json:"contentRef,omitempty" db:"content_ref"`
	Path            string    `json:"path" db:"path"`
	Fingerprint     string    `json:"-" db:"fingerprint"`
	Referrer        *string   `json:"referrer,omitempty" db:"referrer"`
	Device          string    `json:"device" db:"device"`
	Browser         string    `json:"browser" db:"browser"`
	DurationSeconds int       `json:"durationSeconds" db:"duration_seconds"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

const (
	ViewKindInit      = "init"
	ViewKindHeartbeat = "heartbeat"
)

// TrackViewRequest is the body of POST /tracking/view. Which fields are
// meaningful depends on Kind.
type TrackViewRequest struct {
	Kind      string      `json:"kind"`
	TargetRef *FlexibleID `json:"targetRef,omitempty"`
	Path      string      `json:"path,omitempty"`
	Referrer  *string     `json:"referrer,omitempty"`
	UserAgent string      `json:"userAgent,omitempty"`
	VisitID   string      `json:"visitId,omitempty"`
	Seconds   int         `json:"seconds,omitempty"`
}

type InitVisitInput struct {
	ContentRef  *string
	Path        string
	Fingerprint string
	Referrer    *string
	UserAgent   string
}

type InitVisitResponse struct {
	VisitID string `json:"visitId"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
