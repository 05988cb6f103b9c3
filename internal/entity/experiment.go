// entity/experiment.go
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

type ExperimentStatus string

const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentActive    ExperimentStatus = "active"
	ExperimentCompleted ExperimentStatus = "completed"
)

func (s ExperimentStatus) Valid() bool {
	switch s {
	case ExperimentDraft, ExperimentActive, ExperimentCompleted:
		return true
	}
	return false
}

type Variant struct {
	ID     string `json:"id"`
	Weight int    `json:"weight"`
}

// Variants keeps the configured order; bucketing depends on it.
type Variants []Variant

func (v Variants) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func (v *Variants) Scan(value interface{}) error {
	var raw []byte
	switch val := value.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		raw = val
	case string:
		raw = []byte(val)
	default:
		return fmt.Errorf("cannot scan %T into Variants", value)
	}
	return json.Unmarshal(raw, v)
}

func (v Variants) TotalWeight() int {
	total := 0
	for _, variant := range v {
		total += variant.Weight
	}
	return total
}

type Experiment struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	Slug      string           `json:"slug" db:"slug"`
	Name      string           `json:"name" db:"name"`
	Status    ExperimentStatus `json:"status" db:"status"`
	Variants  Variants         `json:"variants" db:"variants"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}

type Assignment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ExperimentID uuid.UUID `json:"experimentId" db:"experiment_id"`
	SessionID    string    `json:"sessionId" db:"session_id"`
	VariantID    string    `json:"variantId" db:"variant_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type Conversion struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AssignmentID   uuid.UUID `json:"assignmentId" db:"assignment_id"`
	ConversionType string    `json:"conversionType" db:"conversion_type"`
	Value          float64   `json:"value" db:"value"`
	Metadata       Metadata  `json:"metadata" db:"metadata"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

type CreateExperimentRequest struct {
	Slug     string           `json:"slug" binding:"required,max=100"`
	Name     string           `json:"name" binding:"max=200"`
	Status   ExperimentStatus `json:"status,omitempty"`
	Variants Variants         `json:"variants" binding:"required,min=1"`
}

type UpdateExperimentStatusRequest struct {
	Status ExperimentStatus `json:"status" binding:"required"`
}

type RecordConversionRequest struct {
	ExperimentSlug  string   `json:"experimentSlug"`
	SessionID       string   `json:"sessionId"`
	ConversionType  *string  `json:"conversionType,omitempty"`
	ConversionValue *float64 `json:"conversionValue,omitempty"`
	Metadata        Metadata `json:"metadata,omitempty"`
}

type VariantResponse struct {
	Variant *string `json:"variant"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// VariantCounts is the raw per-variant tally read from storage.
type VariantCounts struct {
	VariantID   string  `db:"variant_id"`
	Assignments int     `db:"assignments"`
	Conversions int     `db:"conversions"`
	Converted   int     `db:"converted"`
	TotalValue  float64 `db:"total_value"`
}

type VariantResult struct {
	VariantID      string  `json:"variantId"`
	Weight         int     `json:"weight"`
	Assignments    int     `json:"assignments"`
	Conversions    int     `json:"conversions"`
	Converted      int     `json:"converted"`
	ConversionRate float64 `json:"conversionRate"`
	TotalValue     float64 `json:"totalValue"`
}

type ExperimentResults struct {
	Experiment *Experiment     `json:"experiment"`
	Variants   []VariantResult `json:"variants"`
}
