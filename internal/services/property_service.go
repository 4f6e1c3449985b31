// internal/services/property_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

type PropertyService struct {
	db *gorm.DB
}

type CreatePropertyRequest struct {
	Title                 string       `json:"title" validate:"required,max=255"`
	Description           string       `json:"description" validate:"required"`
	Address               string       `json:"address" validate:"required"`
	City                  string       `json:"city" validate:"required"`
	State                 string       `json:"state" validate:"required"`
	ZipCode               string       `json:"zip_code" validate:"required"`
	PropertyType          string       `json:"property_type" validate:"required"`
	Bedrooms              int          `json:"bedrooms" validate:"required,min=0"`
	Bathrooms             float64      `json:"bathrooms" validate:"required,min=0"`
	AreaSqft              int          `json:"area_sqft" validate:"required,min=1"`
	RentAmount            float64      `json:"rent_amount" validate:"required,gt=0"`
	SecurityDeposit       float64      `json:"security_deposit" validate:"required,gt=0"`
	AvailableFrom         *time.Time   `json:"available_from" validate:"required"`
	MinLeaseDuration      int          `json:"min_lease_duration" validate:"required,min=1"`
	AccessibilityFeatures models.JSONB `json:"accessibility_features,omitempty"`
	ImageURLs             []string     `json:"image_urls,omitempty"`
}

type UpdatePropertyRequest struct {
	Title                 *string                `json:"title,omitempty"`
	Description           *string                `json:"description,omitempty"`
	RentAmount            *float64               `json:"rent_amount,omitempty"`
	SecurityDeposit       *float64               `json:"security_deposit,omitempty"`
	AvailableFrom         *time.Time             `json:"available_from,omitempty"`
	MinLeaseDuration      *int                   `json:"min_lease_duration,omitempty"`
	Status                *models.PropertyStatus `json:"status,omitempty"`
	AccessibilityFeatures models.JSONB           `json:"accessibility_features,omitempty"`
}

type PropertySearchParams struct {
	utils.PaginationParams
	City         string
	MinBedrooms  int
	MaxRent      float64
	PropertyType string
}

func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

func (s *PropertyService) Create(landlordID uuid.UUID, req *CreatePropertyRequest) (*models.Property, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	property := &models.Property{
		LandlordID:            landlordID,
		Title:                 req.Title,
		Description:           req.Description,
		Address:               req.Address,
		City:                  req.City,
		State:                 req.State,
		ZipCode:               req.ZipCode,
		PropertyType:          req.PropertyType,
		Bedrooms:              req.Bedrooms,
		Bathrooms:             req.Bathrooms,
		AreaSqft:              req.AreaSqft,
		RentAmount:            req.RentAmount,
		SecurityDeposit:       req.SecurityDeposit,
		AvailableFrom:         req.AvailableFrom,
		MinLeaseDuration:      req.MinLeaseDuration,
		Status:                models.PropertyStatusAvailable,
		AccessibilityFeatures: req.AccessibilityFeatures,
	}

	for i, url := range req.ImageURLs {
		property.Images = append(property.Images, models.PropertyImage{
			ImageURL:  url,
			IsPrimary: i == 0,
		})
	}

	if err := s.db.Create(property).Error; err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	return property, nil
}

func (s *PropertyService) Get(id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := s.db.Preload("Images").Preload("Landlord").
		First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &property, nil
}

// Search lists available properties for the public listing page.
func (s *PropertyService) Search(params PropertySearchParams) ([]models.Property, int64, error) {
	query := s.db.Model(&models.Property{}).
		Where("status = ?", models.PropertyStatusAvailable).
		Preload("Images")

	if params.City != "" {
		query = query.Where("city LIKE ?", "%"+params.City+"%")
	}
	if params.MinBedrooms > 0 {
		query = query.Where("bedrooms >= ?", params.MinBedrooms)
	}
	if params.MaxRent > 0 {
		query = query.Where("rent_amount <= ?", params.MaxRent)
	}
	if params.PropertyType != "" {
		query = query.Where("property_type = ?", params.PropertyType)
	}
	if params.Search != "" {
		query = query.Where("title LIKE ? OR description LIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	allowedSortFields := []string{"created_at", "rent_amount", "bedrooms"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch properties: %w", err)
	}

	return properties, total, nil
}

func (s *PropertyService) ListByLandlord(landlordID uuid.UUID, params utils.PaginationParams) ([]models.Property, int64, error) {
	query := s.db.Model(&models.Property{}).
		Where("landlord_id = ?", landlordID).
		Preload("Images")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "rent_amount", "status"})
	query = utils.ApplyPagination(query, params)

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch properties: %w", err)
	}

	return properties, total, nil
}

func (s *PropertyService) Update(landlordID, propertyID uuid.UUID, req *UpdatePropertyRequest) (*models.Property, error) {
	var property models.Property
	if err := s.db.First(&property, "id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if property.LandlordID != landlordID {
		return nil, fmt.Errorf("property %s does not belong to caller: %w", propertyID, ErrForbidden)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.RentAmount != nil {
		updates["rent_amount"] = *req.RentAmount
	}
	if req.SecurityDeposit != nil {
		updates["security_deposit"] = *req.SecurityDeposit
	}
	if req.AvailableFrom != nil {
		updates["available_from"] = *req.AvailableFrom
	}
	if req.MinLeaseDuration != nil {
		updates["min_lease_duration"] = *req.MinLeaseDuration
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.AccessibilityFeatures != nil {
		updates["accessibility_features"] = req.AccessibilityFeatures
	}

	if len(updates) > 0 {
		if err := s.db.Model(&property).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update property: %w", err)
		}
	}

	return &property, nil
}

// Delete removes a property and cascades to its viewings, negotiations and
// agreements.
func (s *PropertyService) Delete(landlordID, propertyID uuid.UUID) error {
	var property models.Property
	if err := s.db.First(&property, "id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if property.LandlordID != landlordID {
		return fmt.Errorf("property %s does not belong to caller: %w", propertyID, ErrForbidden)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.PropertyViewing{},
			&models.Negotiation{},
			&models.RentalAgreement{},
			&models.PropertyImage{},
		} {
			if err := tx.Where("property_id = ?", propertyID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to cascade delete: %w", err)
			}
		}
		if err := tx.Delete(&property).Error; err != nil {
			return fmt.Errorf("failed to delete property: %w", err)
		}
		return nil
	})
}

// MarkRented is invoked by the settlement trigger after a successful
// security-deposit payment on a signed agreement.
func (s *PropertyService) MarkRented(propertyID uuid.UUID) error {
	result := s.db.Model(&models.Property{}).
		Where("id = ?", propertyID).
		Update("status", models.PropertyStatusRented)
	if result.Error != nil {
		return fmt.Errorf("failed to mark property rented: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
	}
	return nil
}
