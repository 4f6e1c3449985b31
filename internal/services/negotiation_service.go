// internal/services/negotiation_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/database"
	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

// NegotiationService manages the proposal/counter-proposal exchange between
// exactly one tenant and one landlord for one property.
type NegotiationService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CreateNegotiationRequest struct {
	PropertyID    uuid.UUID    `json:"property_id" validate:"required"`
	ProposedRent  float64      `json:"proposed_rent" validate:"required,gt=0"`
	ProposedTerms models.JSONB `json:"proposed_terms,omitempty"`
}

type PostMessageRequest struct {
	MessageText   string `json:"message_text" validate:"required"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

type UpdateNegotiationRequest struct {
	ProposedRent  *float64                  `json:"proposed_rent,omitempty"`
	ProposedTerms models.JSONB              `json:"proposed_terms,omitempty"`
	Status        *models.NegotiationStatus `json:"status,omitempty" validate:"omitempty,oneof=accepted rejected expired"`
}

func NewNegotiationService(db *gorm.DB, notificationService *NotificationService) *NegotiationService {
	return &NegotiationService{
		db:                  db,
		notificationService: notificationService,
	}
}

// Create starts a negotiation for an available property. At most one active
// negotiation may exist per (tenant, property); a partial unique index backs
// the in-transaction check against racing requests.
func (s *NegotiationService) Create(tenantID uuid.UUID, req *CreateNegotiationRequest) (*models.Negotiation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var negotiation *models.Negotiation
	var landlordID uuid.UUID

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.First(&property, "id = ?", req.PropertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("property %s: %w", req.PropertyID, ErrNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if property.Status != models.PropertyStatusAvailable {
			return fmt.Errorf("property is not available for negotiation: %w", ErrInvalidState)
		}

		var count int64
		if err := tx.Model(&models.Negotiation{}).
			Where("property_id = ? AND tenant_id = ? AND status = ?",
				req.PropertyID, tenantID, models.NegotiationStatusActive).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing negotiations: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("active negotiation already exists for this property: %w", ErrConflict)
		}

		negotiation = &models.Negotiation{
			PropertyID:    req.PropertyID,
			TenantID:      tenantID,
			LandlordID:    property.LandlordID,
			ProposedRent:  req.ProposedRent,
			ProposedTerms: req.ProposedTerms,
			Status:        models.NegotiationStatusActive,
		}

		if err := tx.Create(negotiation).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("active negotiation already exists for this property: %w", ErrConflict)
			}
			return fmt.Errorf("failed to create negotiation: %w", err)
		}

		landlordID = property.LandlordID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(landlordID,
		"New Negotiation Request",
		"A tenant has started a negotiation for your property",
		fmt.Sprintf("/dashboard/negotiations/%s", negotiation.ID))

	return negotiation, nil
}

func (s *NegotiationService) Get(userID, negotiationID uuid.UUID) (*models.Negotiation, error) {
	var negotiation models.Negotiation
	if err := s.db.Preload("Property").Preload("Tenant").Preload("Landlord").
		First(&negotiation, "id = ?", negotiationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("negotiation %s: %w", negotiationID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !negotiation.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a participant of negotiation %s: %w", negotiationID, ErrForbidden)
	}

	return &negotiation, nil
}

func (s *NegotiationService) List(userID uuid.UUID, role models.Role, params utils.PaginationParams) ([]models.Negotiation, int64, error) {
	query := s.db.Model(&models.Negotiation{}).
		Preload("Property").Preload("Property.Images").
		Preload("Tenant").Preload("Landlord")

	if role == models.RoleTenant {
		query = query.Where("tenant_id = ?", userID)
	} else {
		query = query.Where("landlord_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count negotiations: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"updated_at", "created_at", "status"})
	query = utils.ApplyPagination(query, params)

	var negotiations []models.Negotiation
	if err := query.Find(&negotiations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch negotiations: %w", err)
	}

	return negotiations, total, nil
}

// PostMessage appends a chat message to an active negotiation, bumps its
// updated_at and notifies the counterpart.
func (s *NegotiationService) PostMessage(userID, negotiationID uuid.UUID, req *PostMessageRequest) (*models.Message, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var negotiation models.Negotiation
	if err := s.db.First(&negotiation, "id = ?", negotiationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("negotiation %s: %w", negotiationID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !negotiation.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a participant of negotiation %s: %w", negotiationID, ErrForbidden)
	}

	if negotiation.Status != models.NegotiationStatusActive {
		return nil, fmt.Errorf("negotiation is no longer active: %w", ErrInvalidState)
	}

	message := &models.Message{
		NegotiationID: negotiationID,
		SenderID:      userID,
		MessageText:   req.MessageText,
		AttachmentURL: req.AttachmentURL,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		// Touch the negotiation so list views sort by latest activity.
		if err := tx.Model(&negotiation).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
			return fmt.Errorf("failed to touch negotiation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(negotiation.Counterpart(userID),
		"New message in negotiation",
		"You have received a new message in your negotiation",
		fmt.Sprintf("/dashboard/negotiations/%s", negotiationID))

	return message, nil
}

// GetMessages returns the negotiation's chat history in chronological order.
// As a side effect it batch-marks unread messages addressed to the caller as
// read; there is no separate mark-read endpoint for negotiation chat. The
// flip never touches the caller's own messages, so a second fetch is a no-op.
func (s *NegotiationService) GetMessages(userID, negotiationID uuid.UUID) ([]models.Message, error) {
	var negotiation models.Negotiation
	if err := s.db.First(&negotiation, "id = ?", negotiationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("negotiation %s: %w", negotiationID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !negotiation.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a participant of negotiation %s: %w", negotiationID, ErrForbidden)
	}

	var messages []models.Message
	if err := s.db.Where("negotiation_id = ?", negotiationID).
		Preload("Sender").
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if err := s.db.Model(&models.Message{}).
		Where("negotiation_id = ? AND sender_id <> ? AND read = ?", negotiationID, userID, false).
		Update("read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	for i := range messages {
		if messages[i].SenderID != userID {
			messages[i].Read = true
		}
	}

	return messages, nil
}

// Update changes terms or moves an active negotiation to a terminal status.
// Terminal negotiations are immutable. Accepting a negotiation does not create
// the agreement; that is an explicit landlord action
// (AgreementService.CreateFromNegotiation).
func (s *NegotiationService) Update(userID, negotiationID uuid.UUID, req *UpdateNegotiationRequest) (*models.Negotiation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var negotiation models.Negotiation
	if err := s.db.First(&negotiation, "id = ?", negotiationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("negotiation %s: %w", negotiationID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !negotiation.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a participant of negotiation %s: %w", negotiationID, ErrForbidden)
	}

	if negotiation.Status != models.NegotiationStatusActive {
		return nil, fmt.Errorf("negotiation is no longer active: %w", ErrInvalidState)
	}

	updates := map[string]interface{}{}
	if req.ProposedRent != nil {
		updates["proposed_rent"] = *req.ProposedRent
	}
	if req.ProposedTerms != nil {
		updates["proposed_terms"] = req.ProposedTerms
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(&negotiation).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update negotiation: %w", err)
		}
	}

	if req.Status != nil &&
		(*req.Status == models.NegotiationStatusAccepted || *req.Status == models.NegotiationStatusRejected) {
		s.notificationService.Notify(negotiation.Counterpart(userID),
			fmt.Sprintf("Negotiation %s", *req.Status),
			fmt.Sprintf("Your negotiation has been %s", *req.Status),
			fmt.Sprintf("/dashboard/negotiations/%s", negotiationID))
	}

	return &negotiation, nil
}
