// internal/services/viewing_service.go
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

type ViewingService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type RequestViewingRequest struct {
	PropertyID  uuid.UUID `json:"property_id" validate:"required"`
	ViewingDate time.Time `json:"viewing_date" validate:"required"`
	Notes       string    `json:"notes,omitempty"`
}

func NewViewingService(db *gorm.DB, notificationService *NotificationService) *ViewingService {
	return &ViewingService{
		db:                  db,
		notificationService: notificationService,
	}
}

func (s *ViewingService) Request(tenantID uuid.UUID, req *RequestViewingRequest) (*models.PropertyViewing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var property models.Property
	if err := s.db.First(&property, "id = ?", req.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %s: %w", req.PropertyID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if property.Status != models.PropertyStatusAvailable {
		return nil, fmt.Errorf("property is not available for viewing: %w", ErrInvalidState)
	}

	viewing := &models.PropertyViewing{
		PropertyID:  req.PropertyID,
		TenantID:    tenantID,
		ViewingDate: req.ViewingDate,
		Status:      models.ViewingStatusRequested,
		Notes:       req.Notes,
	}

	if err := s.db.Create(viewing).Error; err != nil {
		return nil, fmt.Errorf("failed to create viewing: %w", err)
	}

	s.notificationService.Notify(property.LandlordID,
		"New Viewing Request",
		fmt.Sprintf("A tenant has requested to view your property on %s", req.ViewingDate.Format("Jan 2, 2006")),
		fmt.Sprintf("/dashboard/viewings/%s", viewing.ID))

	return viewing, nil
}

func (s *ViewingService) List(userID uuid.UUID, role models.Role, params utils.PaginationParams) ([]models.PropertyViewing, int64, error) {
	query := s.db.Model(&models.PropertyViewing{}).
		Preload("Property").Preload("Tenant")

	if role == models.RoleTenant {
		query = query.Where("tenant_id = ?", userID)
	} else {
		query = query.Where("property_id IN (SELECT id FROM properties WHERE landlord_id = ?)", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count viewings: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"viewing_date", "created_at", "status"})
	query = utils.ApplyPagination(query, params)

	var viewings []models.PropertyViewing
	if err := query.Find(&viewings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch viewings: %w", err)
	}

	return viewings, total, nil
}

// UpdateStatus lets the landlord confirm/complete/cancel a viewing and the
// tenant cancel their own request.
func (s *ViewingService) UpdateStatus(userID uuid.UUID, viewingID uuid.UUID, newStatus models.ViewingStatus) (*models.PropertyViewing, error) {
	var viewing models.PropertyViewing
	if err := s.db.Preload("Property").First(&viewing, "id = ?", viewingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("viewing %s: %w", viewingID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	isTenant := viewing.TenantID == userID
	isLandlord := viewing.Property.LandlordID == userID
	if !isTenant && !isLandlord {
		return nil, fmt.Errorf("caller is not a participant of viewing %s: %w", viewingID, ErrForbidden)
	}

	if viewing.Status == models.ViewingStatusCompleted || viewing.Status == models.ViewingStatusCancelled {
		return nil, fmt.Errorf("viewing is already %s: %w", viewing.Status, ErrInvalidState)
	}

	// Tenants may only cancel; landlords may confirm, complete or cancel.
	if isTenant && !isLandlord && newStatus != models.ViewingStatusCancelled {
		return nil, fmt.Errorf("tenants may only cancel viewings: %w", ErrForbidden)
	}

	if err := s.db.Model(&viewing).Update("status", newStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to update viewing: %w", err)
	}

	counterpart := viewing.TenantID
	if isTenant {
		counterpart = viewing.Property.LandlordID
	}
	s.notificationService.Notify(counterpart,
		"Viewing Updated",
		fmt.Sprintf("A property viewing has been %s", newStatus),
		fmt.Sprintf("/dashboard/viewings/%s", viewing.ID))

	return &viewing, nil
}
