// internal/models/agreement.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RentalAgreement is the central entity of the platform. PropertyID, TenantID
// and LandlordID are immutable after creation. Any content change creates a new
// AgreementVersion and resets both signatures.
type RentalAgreement struct {
	BaseModel
	PropertyID       uuid.UUID       `json:"property_id" gorm:"type:uuid;not null;index"`
	TenantID         uuid.UUID       `json:"tenant_id" gorm:"type:uuid;not null;index"`
	LandlordID       uuid.UUID       `json:"landlord_id" gorm:"type:uuid;not null;index"`
	NegotiationID    *uuid.UUID      `json:"negotiation_id,omitempty" gorm:"type:uuid;index"`
	Title            string          `json:"title" gorm:"size:255;not null"`
	Content          JSONB           `json:"content" gorm:"type:jsonb;not null"`
	StartDate        time.Time       `json:"start_date" gorm:"not null"`
	EndDate          time.Time       `json:"end_date" gorm:"not null"`
	RentAmount       float64         `json:"rent_amount" gorm:"type:decimal(10,2);not null"`
	SecurityDeposit  float64         `json:"security_deposit" gorm:"type:decimal(10,2);not null"`
	PaymentDueDay    int             `json:"payment_due_day" gorm:"not null"`
	Status           AgreementStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	TenantSigned     bool            `json:"tenant_signed" gorm:"default:false"`
	TenantSignedAt   *time.Time      `json:"tenant_signed_at"`
	LandlordSigned   bool            `json:"landlord_signed" gorm:"default:false"`
	LandlordSignedAt *time.Time      `json:"landlord_signed_at"`
	AIVerified       bool            `json:"ai_verified" gorm:"default:false"`

	// Relationships
	Property Property           `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Tenant   Profile            `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Landlord Profile            `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
	Versions []AgreementVersion `json:"versions,omitempty" gorm:"foreignKey:AgreementID;constraint:OnDelete:CASCADE"`
	Comments []AgreementComment `json:"comments,omitempty" gorm:"foreignKey:AgreementID;constraint:OnDelete:CASCADE"`
}

func (a *RentalAgreement) IsParticipant(userID uuid.UUID) bool {
	return a.TenantID == userID || a.LandlordID == userID
}

func (a *RentalAgreement) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == a.TenantID {
		return a.LandlordID
	}
	return a.TenantID
}

// IsTerminal reports whether the agreement can no longer change content.
func (s AgreementStatus) IsTerminal() bool {
	return s == AgreementStatusSigned || s == AgreementStatusExpired || s == AgreementStatusTerminated
}

// AgreementVersion is an append-only content snapshot. Version numbers start at
// 1 and increase by exactly 1 per content change; rows are never updated or
// deleted.
type AgreementVersion struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	AgreementID   uuid.UUID `json:"agreement_id" gorm:"type:uuid;not null;uniqueIndex:idx_agreement_version"`
	VersionNumber int       `json:"version_number" gorm:"not null;uniqueIndex:idx_agreement_version"`
	Content       JSONB     `json:"content" gorm:"type:jsonb;not null"`
	CreatedBy     uuid.UUID `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (v *AgreementVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type AgreementComment struct {
	BaseModel
	AgreementID uuid.UUID `json:"agreement_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	SectionID   string    `json:"section_id" gorm:"size:100;not null"`
	CommentText string    `json:"comment_text" gorm:"type:text;not null"`
	Resolved    bool      `json:"resolved" gorm:"default:false"`

	// Relationships
	Author Profile `json:"author,omitempty" gorm:"foreignKey:UserID"`
}
