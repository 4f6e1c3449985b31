// internal/models/negotiation.go
package models

import (
	"github.com/google/uuid"
)

// Negotiation is a single term discussion between one tenant and one landlord
// for one property. At most one active negotiation may exist per
// (tenant, property) pair; a partial unique index enforces this.
type Negotiation struct {
	BaseModel
	PropertyID    uuid.UUID         `json:"property_id" gorm:"type:uuid;not null;index"`
	TenantID      uuid.UUID         `json:"tenant_id" gorm:"type:uuid;not null;index"`
	LandlordID    uuid.UUID         `json:"landlord_id" gorm:"type:uuid;not null;index"`
	ProposedRent  float64           `json:"proposed_rent" gorm:"type:decimal(10,2)"`
	ProposedTerms JSONB             `json:"proposed_terms,omitempty" gorm:"type:jsonb"`
	Status        NegotiationStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Property Property  `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Tenant   Profile   `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Landlord Profile   `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:NegotiationID;constraint:OnDelete:CASCADE"`
}

// IsParticipant reports whether userID is the tenant or landlord side.
func (n *Negotiation) IsParticipant(userID uuid.UUID) bool {
	return n.TenantID == userID || n.LandlordID == userID
}

// Counterpart returns the other party of the negotiation.
func (n *Negotiation) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == n.TenantID {
		return n.LandlordID
	}
	return n.TenantID
}

type Message struct {
	BaseModel
	NegotiationID uuid.UUID `json:"negotiation_id" gorm:"type:uuid;not null;index"`
	SenderID      uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	MessageText   string    `json:"message_text" gorm:"type:text;not null"`
	AttachmentURL string    `json:"attachment_url,omitempty" gorm:"size:512"`
	Read          bool      `json:"read" gorm:"default:false"`

	// Relationships
	Sender Profile `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
