// internal/models/property.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Property struct {
	BaseModel
	LandlordID            uuid.UUID      `json:"landlord_id" gorm:"type:uuid;not null;index"`
	Title                 string         `json:"title" gorm:"size:255;not null"`
	Description           string         `json:"description" gorm:"type:text"`
	Address               string         `json:"address" gorm:"size:255;not null"`
	City                  string         `json:"city" gorm:"size:100;not null;index"`
	State                 string         `json:"state" gorm:"size:100;not null"`
	ZipCode               string         `json:"zip_code" gorm:"size:20;not null"`
	PropertyType          string         `json:"property_type" gorm:"size:50;not null"`
	Bedrooms              int            `json:"bedrooms" gorm:"not null"`
	Bathrooms             float64        `json:"bathrooms" gorm:"not null"`
	AreaSqft              int            `json:"area_sqft" gorm:"not null"`
	RentAmount            float64        `json:"rent_amount" gorm:"type:decimal(10,2);not null;index"`
	SecurityDeposit       float64        `json:"security_deposit" gorm:"type:decimal(10,2);not null"`
	AvailableFrom         *time.Time     `json:"available_from"`
	MinLeaseDuration      int            `json:"min_lease_duration" gorm:"not null"`
	Status                PropertyStatus `json:"status" gorm:"type:varchar(20);default:'available';index"`
	AccessibilityFeatures JSONB          `json:"accessibility_features,omitempty" gorm:"type:jsonb"`

	// Relationships
	Landlord Profile         `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
	Images   []PropertyImage `json:"images,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

type PropertyImage struct {
	BaseModel
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;not null;index"`
	ImageURL   string    `json:"image_url" gorm:"size:512;not null"`
	IsPrimary  bool      `json:"is_primary" gorm:"default:false"`
}

type PropertyViewing struct {
	BaseModel
	PropertyID  uuid.UUID     `json:"property_id" gorm:"type:uuid;not null;index"`
	TenantID    uuid.UUID     `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ViewingDate time.Time     `json:"viewing_date" gorm:"not null"`
	Status      ViewingStatus `json:"status" gorm:"type:varchar(20);default:'requested';index"`
	Notes       string        `json:"notes,omitempty" gorm:"type:text"`

	// Relationships
	Property Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Tenant   Profile  `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
