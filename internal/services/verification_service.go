// internal/services/verification_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/config"
	"github.com/leaselink/leaselink-backend/internal/models"
)

// VerificationService submits an agreement's content to the external scoring
// service and records the verdict. The scoring service is opaque: the platform
// only persists whether the agreement passed, never the analysis itself.
type VerificationService struct {
	db         *gorm.DB
	httpClient *resty.Client
}

type verificationRequest struct {
	AgreementID string              `json:"agreement_id"`
	Content     models.JSONB        `json:"content"`
	Property    verificationContext `json:"property"`
}

// verificationContext gives the scoring model the listing facts it should
// check the agreement terms against.
type verificationContext struct {
	Title           string  `json:"title"`
	PropertyType    string  `json:"property_type"`
	RentAmount      float64 `json:"rent_amount"`
	SecurityDeposit float64 `json:"security_deposit"`
	City            string  `json:"city"`
}

// VerificationResult is the scoring service's verdict as returned to the
// caller. Issues are advisory; the persisted ai_verified flag is true only
// when the content is complete, fair and issue-free.
type VerificationResult struct {
	IsComplete bool     `json:"is_complete"`
	IsFair     bool     `json:"is_fair"`
	Issues     []string `json:"issues"`
	Summary    string   `json:"summary,omitempty"`
}

func (r *VerificationResult) Passed() bool {
	return r.IsComplete && r.IsFair && len(r.Issues) == 0
}

func NewVerificationService(db *gorm.DB, cfg *config.Config) *VerificationService {
	client := resty.New().
		SetBaseURL(cfg.AI.BaseURL).
		SetTimeout(time.Duration(cfg.AI.TimeoutMS) * time.Millisecond).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.AI.APIKey != "" {
		client.SetAuthToken(cfg.AI.APIKey)
	}

	return &VerificationService{
		db:         db,
		httpClient: client,
	}
}

// Verify scores the agreement's current content and persists the verdict on
// the agreement row. Either party may trigger it at any non-terminal point;
// a later content change leaves the stale flag in place until re-verified.
func (s *VerificationService) Verify(userID, agreementID uuid.UUID) (*VerificationResult, error) {
	var agreement models.RentalAgreement
	if err := s.db.Preload("Property").First(&agreement, "id = ?", agreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agreement %s: %w", agreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !agreement.IsParticipant(userID) {
		return nil, fmt.Errorf("caller is not a party to agreement %s: %w", agreementID, ErrForbidden)
	}

	var result VerificationResult
	resp, err := s.httpClient.R().
		SetBody(verificationRequest{
			AgreementID: agreementID.String(),
			Content:     agreement.Content,
			Property: verificationContext{
				Title:           agreement.Property.Title,
				PropertyType:    agreement.Property.PropertyType,
				RentAmount:      agreement.Property.RentAmount,
				SecurityDeposit: agreement.Property.SecurityDeposit,
				City:            agreement.Property.City,
			},
		}).
		SetResult(&result).
		Post("/v1/agreements/verify")
	if err != nil {
		return nil, fmt.Errorf("failed to call verification service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("verification service returned %d", resp.StatusCode())
	}

	verified := result.Passed()
	if err := s.db.Model(&agreement).Update("ai_verified", verified).Error; err != nil {
		return nil, fmt.Errorf("failed to persist verification verdict: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"agreement_id": agreementID,
		"verified":     verified,
		"issue_count":  len(result.Issues),
	}).Info("Agreement verification completed")

	return &result, nil
}
