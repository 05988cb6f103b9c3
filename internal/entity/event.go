// entity/event.go
package entity

import (
	"github.com/gofrs/uuid"
	"time"
)

const (
	TargetPost     = "post"
	TargetSoftware = "software"
	TargetCategory = "category"
	TargetPage     = "page"
	TargetNone     = "none"
)

var ValidTargetTypes = map[string]bool{
	TargetPost:     true,
	TargetSoftware: true,
	TargetCategory: true,
	TargetPage:     true,
	TargetNone:     true,
}

type Event struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SessionID  string    `json:"sessionId" db:"session_id"`
	EventType  string    `json:"eventType" db:"event_type"`
	TargetType string    `json:"targetType" db:"target_type"`
	TargetID   *string   `json:"targetId,omitempty" db:"target_id"`
	TargetSlug *string   `json:"targetSlug,omitempty" db:"target_slug"`
	Metadata   Metadata  `json:"metadata" db:"metadata"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type RecordEventRequest struct {
	SessionID  string      `json:"sessionId"`
	EventType  string      `json:"eventType"`
	TargetType *string     `json:"targetType,omitempty"`
	TargetID   *FlexibleID `json:"targetId,omitempty"`
	TargetSlug *string     `json:"targetSlug,omitempty"`
	Metadata   Metadata    `json:"metadata,omitempty"`
}

type TrendingItem struct {
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}
