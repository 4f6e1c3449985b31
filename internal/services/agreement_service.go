// internal/services/agreement_service.go
package services

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/database"
	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

// AgreementService owns the rental agreement lifecycle: drafting, versioned
// content edits, dual-party signing and the status reconciliation that follows
// every write. All mutation paths for a single agreement run inside one
// transaction holding a row lock on the agreement, so version numbers stay
// gapless and the signed flip fires exactly once.
type AgreementService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CreateAgreementRequest struct {
	PropertyID      uuid.UUID    `json:"property_id" validate:"required"`
	TenantID        uuid.UUID    `json:"tenant_id" validate:"required"`
	Title           string       `json:"title" validate:"required,max=255"`
	Content         models.JSONB `json:"content" validate:"required"`
	StartDate       time.Time    `json:"start_date" validate:"required"`
	EndDate         time.Time    `json:"end_date" validate:"required,gtfield=StartDate"`
	RentAmount      float64      `json:"rent_amount" validate:"required,gt=0"`
	SecurityDeposit float64      `json:"security_deposit" validate:"required,gte=0"`
	PaymentDueDay   int          `json:"payment_due_day" validate:"required,min=1,max=28"`
}

// CreateFromNegotiationRequest drafts an agreement off an accepted
// negotiation. Property and tenant are never supplied here; both come from
// the negotiation itself, as does the rent unless the request overrides it.
type CreateFromNegotiationRequest struct {
	Title           string       `json:"title" validate:"required,max=255"`
	Content         models.JSONB `json:"content" validate:"required"`
	StartDate       time.Time    `json:"start_date" validate:"required"`
	EndDate         time.Time    `json:"end_date" validate:"required,gtfield=StartDate"`
	RentAmount      float64      `json:"rent_amount" validate:"omitempty,gt=0"`
	SecurityDeposit float64      `json:"security_deposit" validate:"gte=0"`
	PaymentDueDay   int          `json:"payment_due_day" validate:"required,min=1,max=28"`
}

// AgreementPatch is the partial-update payload for an agreement. Pointer
// fields distinguish "absent" from zero values; absent fields are left
// untouched. Signature fields apply only to the caller's own side, the
// counterpart's are stripped during sanitization rather than rejected.
type AgreementPatch struct {
	Title           *string                 `json:"title,omitempty" validate:"omitempty,max=255"`
	Content         models.JSONB            `json:"content,omitempty"`
	StartDate       *time.Time              `json:"start_date,omitempty"`
	EndDate         *time.Time              `json:"end_date,omitempty"`
	RentAmount      *float64                `json:"rent_amount,omitempty" validate:"omitempty,gt=0"`
	SecurityDeposit *float64                `json:"security_deposit,omitempty" validate:"omitempty,gte=0"`
	PaymentDueDay   *int                    `json:"payment_due_day,omitempty" validate:"omitempty,min=1,max=28"`
	Status          *models.AgreementStatus `json:"status,omitempty" validate:"omitempty,oneof=draft pending_review pending_signature expired terminated"`
	TenantSigned    *bool                   `json:"tenant_signed,omitempty"`
	LandlordSigned  *bool                   `json:"landlord_signed,omitempty"`
}

type AddCommentRequest struct {
	SectionID   string `json:"section_id" validate:"required,max=100"`
	CommentText string `json:"comment_text" validate:"required"`
}

func NewAgreementService(db *gorm.DB, notificationService *NotificationService) *AgreementService {
	return &AgreementService{
		db:                  db,
		notificationService: notificationService,
	}
}

// Create drafts an agreement directly, without a preceding negotiation. Only
// the landlord of the property may create one; it starts in draft with version
// 1 snapshotting the initial content.
func (s *AgreementService) Create(landlordID uuid.UUID, req *CreateAgreementRequest) (*models.RentalAgreement, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return s.create(landlordID, req, nil)
}

// CreateFromNegotiation drafts an agreement from an accepted negotiation.
// Accepting a negotiation never creates the agreement implicitly; the landlord
// takes this explicit step, and the draft records the negotiation it came
// from. The negotiated rent seeds the agreement unless the request overrides
// it.
func (s *AgreementService) CreateFromNegotiation(landlordID, negotiationID uuid.UUID, req *CreateFromNegotiationRequest) (*models.RentalAgreement, error) {
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

	if negotiation.LandlordID != landlordID {
		return nil, fmt.Errorf("negotiation %s does not belong to caller: %w", negotiationID, ErrForbidden)
	}
	if negotiation.Status != models.NegotiationStatusAccepted {
		return nil, fmt.Errorf("negotiation must be accepted before drafting an agreement: %w", ErrInvalidState)
	}

	rent := req.RentAmount
	if rent == 0 {
		rent = negotiation.ProposedRent
	}

	return s.create(landlordID, &CreateAgreementRequest{
		PropertyID:      negotiation.PropertyID,
		TenantID:        negotiation.TenantID,
		Title:           req.Title,
		Content:         req.Content,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		RentAmount:      rent,
		SecurityDeposit: req.SecurityDeposit,
		PaymentDueDay:   req.PaymentDueDay,
	}, &negotiationID)
}

func (s *AgreementService) create(landlordID uuid.UUID, req *CreateAgreementRequest, negotiationID *uuid.UUID) (*models.RentalAgreement, error) {
	var agreement *models.RentalAgreement

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.First(&property, "id = ?", req.PropertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("property %s: %w", req.PropertyID, ErrNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}
		if property.LandlordID != landlordID {
			return fmt.Errorf("property %s does not belong to caller: %w", req.PropertyID, ErrForbidden)
		}
		if property.Status != models.PropertyStatusAvailable {
			return fmt.Errorf("property is not available for a new agreement: %w", ErrInvalidState)
		}

		var tenant models.Profile
		if err := tx.First(&tenant, "id = ?", req.TenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("tenant %s: %w", req.TenantID, ErrNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}

		agreement = &models.RentalAgreement{
			PropertyID:      req.PropertyID,
			TenantID:        req.TenantID,
			LandlordID:      landlordID,
			NegotiationID:   negotiationID,
			Title:           req.Title,
			Content:         req.Content,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			RentAmount:      req.RentAmount,
			SecurityDeposit: req.SecurityDeposit,
			PaymentDueDay:   req.PaymentDueDay,
			Status:          models.AgreementStatusDraft,
		}

		if err := tx.Create(agreement).Error; err != nil {
			return fmt.Errorf("failed to create agreement: %w", err)
		}

		version := &models.AgreementVersion{
			AgreementID:   agreement.ID,
			VersionNumber: 1,
			Content:       req.Content,
			CreatedBy:     landlordID,
		}
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create initial version: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(agreement.TenantID,
		"New Rental Agreement",
		"A landlord has drafted a rental agreement for you to review",
		fmt.Sprintf("/dashboard/agreements/%s", agreement.ID))

	return agreement, nil
}

// Update applies a sanitized patch inside a single transaction: it strips the
// counterpart's signature fields, rejects edits the caller's role or the
// agreement status forbids, snapshots changed content into a new version with
// an unconditional signature reset, stamps the caller's own signature and
// finally reconciles the status off the fresh row. The signed flip only fires
// when the agreement was already in pending_signature before this patch, so
// two racing sign requests produce exactly one transition.
func (s *AgreementService) Update(userID uuid.UUID, role models.Role, agreementID uuid.UUID, patch *AgreementPatch) (*models.RentalAgreement, error) {
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var agreement models.RentalAgreement
	var becameSigned bool

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&agreement, "id = ?", agreementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("agreement %s: %w", agreementID, ErrNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !agreement.IsParticipant(userID) {
			return fmt.Errorf("caller is not a party to agreement %s: %w", agreementID, ErrForbidden)
		}

		isTenant := userID == agreement.TenantID
		preStatus := agreement.Status

		updates, contentChanged, err := s.sanitizePatch(&agreement, patch, isTenant)
		if err != nil {
			return err
		}

		if contentChanged {
			var maxVersion int
			row := tx.Model(&models.AgreementVersion{}).
				Where("agreement_id = ?", agreementID).
				Select("COALESCE(MAX(version_number), 0)")
			if err := row.Scan(&maxVersion).Error; err != nil {
				return fmt.Errorf("failed to read current version: %w", err)
			}

			version := &models.AgreementVersion{
				AgreementID:   agreementID,
				VersionNumber: maxVersion + 1,
				Content:       patch.Content,
				CreatedBy:     userID,
			}
			if err := tx.Create(version).Error; err != nil {
				return fmt.Errorf("failed to create version: %w", err)
			}

			// Any content change invalidates both signatures, even the
			// author's own from a previous round.
			updates["tenant_signed"] = false
			updates["tenant_signed_at"] = nil
			updates["landlord_signed"] = false
			updates["landlord_signed_at"] = nil
		}

		if len(updates) > 0 {
			if err := tx.Model(&agreement).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update agreement: %w", err)
			}
		}

		// Reconcile off the row as stored, not the in-memory struct the
		// Updates call may have partially refreshed.
		if err := tx.First(&agreement, "id = ?", agreementID).Error; err != nil {
			return fmt.Errorf("failed to reload agreement: %w", err)
		}

		if agreement.TenantSigned && agreement.LandlordSigned &&
			preStatus == models.AgreementStatusPendingSignature {
			if err := tx.Model(&agreement).Update("status", models.AgreementStatusSigned).Error; err != nil {
				return fmt.Errorf("failed to mark agreement signed: %w", err)
			}
			agreement.Status = models.AgreementStatusSigned
			becameSigned = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameSigned {
		s.notificationService.NotifyAll(
			[]uuid.UUID{agreement.TenantID, agreement.LandlordID},
			"Agreement Fully Signed",
			"Both parties have signed the rental agreement",
			fmt.Sprintf("/dashboard/agreements/%s", agreement.ID))
	}

	return &agreement, nil
}

// sanitizePatch turns the patch into a column update map. It silently drops
// the counterpart's signature fields, then enforces what the caller's role and
// the current status allow. Content equal to the current content (deep
// equality, not byte equality) is not a change.
func (s *AgreementService) sanitizePatch(agreement *models.RentalAgreement, patch *AgreementPatch, isTenant bool) (map[string]interface{}, bool, error) {
	// Own-signature-only: a tenant patching landlord_signed is not an error,
	// the field just never reaches the row.
	tenantSigned := patch.TenantSigned
	landlordSigned := patch.LandlordSigned
	if isTenant {
		landlordSigned = nil
	} else {
		tenantSigned = nil
	}

	updates := map[string]interface{}{}
	contentChanged := false

	hasContentEdit := patch.Title != nil || patch.Content != nil ||
		patch.StartDate != nil || patch.EndDate != nil ||
		patch.RentAmount != nil || patch.SecurityDeposit != nil ||
		patch.PaymentDueDay != nil

	if hasContentEdit {
		if agreement.Status.IsTerminal() {
			return nil, false, fmt.Errorf("agreement is %s and can no longer be edited: %w", agreement.Status, ErrInvalidState)
		}
		if isTenant && agreement.Status != models.AgreementStatusDraft {
			return nil, false, fmt.Errorf("tenants may only edit terms while the agreement is a draft: %w", ErrForbidden)
		}
	}

	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		updates["end_date"] = *patch.EndDate
	}
	if patch.RentAmount != nil {
		updates["rent_amount"] = *patch.RentAmount
	}
	if patch.SecurityDeposit != nil {
		updates["security_deposit"] = *patch.SecurityDeposit
	}
	if patch.PaymentDueDay != nil {
		updates["payment_due_day"] = *patch.PaymentDueDay
	}

	if patch.Content != nil && !reflect.DeepEqual(map[string]interface{}(patch.Content), map[string]interface{}(agreement.Content)) {
		updates["content"] = patch.Content
		contentChanged = true
	}

	if patch.Status != nil && *patch.Status != agreement.Status {
		if agreement.Status.IsTerminal() && *patch.Status != models.AgreementStatusTerminated {
			return nil, false, fmt.Errorf("agreement is %s and its status cannot change: %w", agreement.Status, ErrInvalidState)
		}
		updates["status"] = *patch.Status
	}

	now := time.Now()
	if tenantSigned != nil && *tenantSigned != agreement.TenantSigned {
		if *tenantSigned && agreement.Status != models.AgreementStatusPendingSignature {
			return nil, false, fmt.Errorf("agreement is not awaiting signatures: %w", ErrInvalidState)
		}
		updates["tenant_signed"] = *tenantSigned
		if *tenantSigned {
			updates["tenant_signed_at"] = now
		} else {
			updates["tenant_signed_at"] = nil
		}
	}
	if landlordSigned != nil && *landlordSigned != agreement.LandlordSigned {
		if *landlordSigned && agreement.Status != models.AgreementStatusPendingSignature {
			return nil, false, fmt.Errorf("agreement is not awaiting signatures: %w", ErrInvalidState)
		}
		updates["landlord_signed"] = *landlordSigned
		if *landlordSigned {
			updates["landlord_signed_at"] = now
		} else {
			updates["landlord_signed_at"] = nil
		}
	}

	return updates, contentChanged, nil
}

// Get returns an agreement with its relations and version history metadata.
// Version content is omitted here; GetVersion serves full snapshots.
func (s *AgreementService) Get(userID, agreementID uuid.UUID) (*models.RentalAgreement, error) {
	var agreement models.RentalAgreement
	if err := s.db.
		Preload("Property").Preload("Property.Images").
		Preload("Tenant").Preload("Landlord").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "agreement_id", "version_number", "created_by", "created_at").
				Order("version_number DESC")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.Author").
		First(&agreement, "id = ?", agreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agreement %s: %w", agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !agreement.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a party to agreement %s: %w", agreementID, ErrForbidden)
	}

	return &agreement, nil
}

func (s *AgreementService) List(userID uuid.UUID, role models.Role, params utils.PaginationParams) ([]models.RentalAgreement, int64, error) {
	query := s.db.Model(&models.RentalAgreement{}).
		Preload("Property").Preload("Tenant").Preload("Landlord")

	if role == models.RoleTenant {
		query = query.Where("tenant_id = ?", userID)
	} else {
		query = query.Where("landlord_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count agreements: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"updated_at", "created_at", "status", "start_date"})
	query = utils.ApplyPagination(query, params)

	var agreements []models.RentalAgreement
	if err := query.Find(&agreements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch agreements: %w", err)
	}

	return agreements, total, nil
}

// GetVersion returns one full content snapshot from the version history.
func (s *AgreementService) GetVersion(userID, agreementID uuid.UUID, versionNumber int) (*models.AgreementVersion, error) {
	var agreement models.RentalAgreement
	if err := s.db.First(&agreement, "id = ?", agreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agreement %s: %w", agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !agreement.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a party to agreement %s: %w", agreementID, ErrForbidden)
	}

	var version models.AgreementVersion
	if err := s.db.First(&version, "agreement_id = ? AND version_number = ?", agreementID, versionNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version %d of agreement %s: %w", versionNumber, agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &version, nil
}

// AddComment attaches a section-anchored review comment. Comments are a
// review-phase tool: once the agreement moves to pending_signature the text is
// frozen and new comments are rejected.
func (s *AgreementService) AddComment(userID, agreementID uuid.UUID, req *AddCommentRequest) (*models.AgreementComment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var agreement models.RentalAgreement
	if err := s.db.First(&agreement, "id = ?", agreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agreement %s: %w", agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !agreement.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a party to agreement %s: %w", agreementID, ErrForbidden)
	}

	if agreement.Status != models.AgreementStatusDraft && agreement.Status != models.AgreementStatusPendingReview {
		return nil, fmt.Errorf("comments are only accepted while the agreement is under review: %w", ErrInvalidState)
	}

	comment := &models.AgreementComment{
		AgreementID: agreementID,
		UserID:      userID,
		SectionID:   req.SectionID,
		CommentText: req.CommentText,
	}

	if err := s.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.notificationService.Notify(agreement.Counterpart(userID),
		"New Comment on Agreement",
		fmt.Sprintf("A comment was added to section %q of your agreement", req.SectionID),
		fmt.Sprintf("/dashboard/agreements/%s", agreementID))

	return comment, nil
}

// SetCommentResolved toggles a comment's resolved flag. Either party may
// resolve or reopen any comment on their agreement.
func (s *AgreementService) SetCommentResolved(userID, agreementID, commentID uuid.UUID, resolved bool) (*models.AgreementComment, error) {
	var agreement models.RentalAgreement
	if err := s.db.First(&agreement, "id = ?", agreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agreement %s: %w", agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !agreement.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a party to agreement %s: %w", agreementID, ErrForbidden)
	}

	var comment models.AgreementComment
	if err := s.db.First(&comment, "id = ? AND agreement_id = ?", commentID, agreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %s on agreement %s: %w", commentID, agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if comment.Resolved != resolved {
		if err := s.db.Model(&comment).Update("resolved", resolved).Error; err != nil {
			return nil, fmt.Errorf("failed to update comment: %w", err)
		}
	}

	return &comment, nil
}
