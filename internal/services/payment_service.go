// internal/services/payment_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/config"
	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

// PaymentService creates payment intents for signed agreements and settles
// the outcome reported by the payment provider's webhook.
type PaymentService struct {
	db                  *gorm.DB
	config              *config.Config
	propertyService     *PropertyService
	notificationService *NotificationService
}

type CreatePaymentIntentRequest struct {
	AgreementID uuid.UUID          `json:"agreement_id" validate:"required"`
	PaymentType models.PaymentType `json:"payment_type" validate:"required,oneof=rent security_deposit"`
	Amount      float64            `json:"amount" validate:"required,gt=0"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

// AmountMismatchError rejects a payment whose amount differs from what the
// agreement owes for the requested payment type. It carries the expected
// amount so handlers can render a precise message.
type AmountMismatchError struct {
	Expected    float64
	PaymentType models.PaymentType
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount does not match the agreement's %s of %.2f", e.PaymentType, e.Expected)
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, propertyService *PropertyService, notificationService *NotificationService) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:                  db,
		config:              cfg,
		propertyService:     propertyService,
		notificationService: notificationService,
	}
}

// CreateIntent opens a payment for a fully signed agreement. Only the tenant
// pays, and the client-supplied amount must exactly match the agreement's rent
// or security deposit; the client never controls how much is charged.
func (s *PaymentService) CreateIntent(tenantID uuid.UUID, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var agreement models.RentalAgreement
	if err := s.db.First(&agreement, "id = ?", req.AgreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agreement %s: %w", req.AgreementID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if agreement.TenantID != tenantID {
		return nil, fmt.Errorf("only the tenant of agreement %s may pay: %w", req.AgreementID, ErrForbidden)
	}
	if agreement.Status != models.AgreementStatusSigned {
		return nil, fmt.Errorf("agreement must be fully signed before payment: %w", ErrInvalidState)
	}

	expected := agreement.RentAmount
	if req.PaymentType == models.PaymentTypeSecurityDeposit {
		expected = agreement.SecurityDeposit
	}
	if math.Abs(req.Amount-expected) > 0.009 {
		return nil, &AmountMismatchError{Expected: expected, PaymentType: req.PaymentType}
	}

	amountInCents := int64(math.Round(expected * 100))

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("agreement_id", agreement.ID.String())
	params.AddMetadata("payment_type", string(req.PaymentType))
	params.AddMetadata("tenant_id", agreement.TenantID.String())
	params.AddMetadata("landlord_id", agreement.LandlordID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// HandleEvent is the settlement trigger behind the provider webhook. Events
// the platform does not care about, and events missing our metadata, are
// acknowledged without side effects so the provider stops retrying; both
// cases are logged for operators.
func (s *PaymentService) HandleEvent(event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		return s.settleSucceeded(event)
	case "payment_intent.payment_failed":
		return s.settleFailed(event)
	default:
		logrus.WithField("event_type", event.Type).Debug("Ignoring payment event")
		return nil
	}
}

func (s *PaymentService) settleSucceeded(event stripe.Event) error {
	pi, agreement, paymentType, ok := s.resolveIntent(event)
	if !ok {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"payment_intent": pi.ID,
		"agreement_id":   agreement.ID,
		"payment_type":   paymentType,
	}).Info("Payment succeeded")

	s.notificationService.NotifyAll(
		[]uuid.UUID{agreement.TenantID, agreement.LandlordID},
		"Payment Received",
		fmt.Sprintf("The %s payment of %.2f for %q has been received",
			paymentType, float64(pi.Amount)/100, agreement.Title),
		fmt.Sprintf("/dashboard/agreements/%s", agreement.ID))

	// A paid security deposit takes the property off the market.
	if paymentType == models.PaymentTypeSecurityDeposit {
		if err := s.propertyService.MarkRented(agreement.PropertyID); err != nil {
			return fmt.Errorf("failed to mark property rented: %w", err)
		}
	}

	return nil
}

func (s *PaymentService) settleFailed(event stripe.Event) error {
	pi, agreement, paymentType, ok := s.resolveIntent(event)
	if !ok {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"payment_intent": pi.ID,
		"agreement_id":   agreement.ID,
		"payment_type":   paymentType,
	}).Warn("Payment failed")

	s.notificationService.Notify(agreement.TenantID,
		"Payment Failed",
		fmt.Sprintf("Your %s payment for %q could not be processed", paymentType, agreement.Title),
		fmt.Sprintf("/dashboard/agreements/%s", agreement.ID))

	return nil
}

// resolveIntent unpacks the event and loads the agreement its metadata points
// at. Events from other systems sharing the same provider account carry no
// agreement_id; those are logged and dropped, not errored, since returning an
// error would make the provider retry an event we can never process.
func (s *PaymentService) resolveIntent(event stripe.Event) (*stripe.PaymentIntent, *models.RentalAgreement, models.PaymentType, bool) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Error("Failed to parse payment intent event")
		return nil, nil, "", false
	}

	agreementID := pi.Metadata["agreement_id"]
	paymentType := pi.Metadata["payment_type"]
	if agreementID == "" || paymentType == "" ||
		pi.Metadata["tenant_id"] == "" || pi.Metadata["landlord_id"] == "" {
		logrus.WithFields(logrus.Fields{
			"event_id":       event.ID,
			"payment_intent": pi.ID,
		}).Warn("Payment event without agreement metadata, skipping")
		return nil, nil, "", false
	}

	id, err := uuid.Parse(agreementID)
	if err != nil {
		logrus.WithError(err).WithField("agreement_id", agreementID).Error("Payment event carries malformed agreement id")
		return nil, nil, "", false
	}

	var agreement models.RentalAgreement
	if err := s.db.First(&agreement, "id = ?", id).Error; err != nil {
		logrus.WithError(err).WithField("agreement_id", id).Error("Payment event references unknown agreement")
		return nil, nil, "", false
	}

	return &pi, &agreement, models.PaymentType(paymentType), true
}
