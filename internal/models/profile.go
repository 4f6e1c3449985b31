// internal/models/profile.go
package models

// Profile mirrors the identity provider's subject. The platform never stores
// credentials; the ID matches the provider-issued JWT subject.
type Profile struct {
	BaseModel
	FullName        string `json:"full_name" gorm:"size:255;not null"`
	Role            Role   `json:"role" gorm:"type:varchar(20);not null;index"`
	Phone           string `json:"phone,omitempty" gorm:"size:30"`
	ProfileImageURL string `json:"profile_image_url,omitempty" gorm:"size:512"`

	// Relationships
	Properties []Property `json:"properties,omitempty" gorm:"foreignKey:LandlordID"`
}
