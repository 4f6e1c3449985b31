// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns an ID when the database does not (sqlite in tests).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

type PropertyStatus string

const (
	PropertyStatusAvailable   PropertyStatus = "available"
	PropertyStatusRented      PropertyStatus = "rented"
	PropertyStatusMaintenance PropertyStatus = "maintenance"
	PropertyStatusInactive    PropertyStatus = "inactive"
)

type ViewingStatus string

const (
	ViewingStatusRequested ViewingStatus = "requested"
	ViewingStatusConfirmed ViewingStatus = "confirmed"
	ViewingStatusCompleted ViewingStatus = "completed"
	ViewingStatusCancelled ViewingStatus = "cancelled"
)

type NegotiationStatus string

const (
	NegotiationStatusActive   NegotiationStatus = "active"
	NegotiationStatusAccepted NegotiationStatus = "accepted"
	NegotiationStatusRejected NegotiationStatus = "rejected"
	NegotiationStatusExpired  NegotiationStatus = "expired"
)

type AgreementStatus string

const (
	AgreementStatusDraft            AgreementStatus = "draft"
	AgreementStatusPendingReview    AgreementStatus = "pending_review"
	AgreementStatusPendingSignature AgreementStatus = "pending_signature"
	AgreementStatusSigned           AgreementStatus = "signed"
	AgreementStatusExpired          AgreementStatus = "expired"
	AgreementStatusTerminated       AgreementStatus = "terminated"
)

type PaymentType string

const (
	PaymentTypeRent            PaymentType = "rent"
	PaymentTypeSecurityDeposit PaymentType = "security_deposit"
)
