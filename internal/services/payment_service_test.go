// internal/services/payment_service_test.go
package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/config"
	"github.com/leaselink/leaselink-backend/internal/models"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	svc       *PaymentService
	landlord  *models.Profile
	tenant    *models.Profile
	property  *models.Property
	agreement *models.RentalAgreement
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	notificationService := NewNotificationService(s.db)
	agreementService := NewAgreementService(s.db, notificationService)
	s.svc = NewPaymentService(s.db, &config.Config{
		Payment: config.PaymentConfig{Currency: "usd"},
	}, NewPropertyService(s.db), notificationService)

	s.landlord = seedProfile(s.T(), s.db, models.RoleLandlord)
	s.tenant = seedProfile(s.T(), s.db, models.RoleTenant)
	s.property = seedProperty(s.T(), s.db, s.landlord.ID)
	s.agreement = seedAgreement(s.T(), s.db, agreementService, s.landlord.ID, s.property, s.tenant.ID)
}

func (s *PaymentServiceTestSuite) event(eventType, paymentType string, withMetadata bool) stripe.Event {
	metadata := map[string]string{}
	if withMetadata {
		metadata = map[string]string{
			"agreement_id": s.agreement.ID.String(),
			"payment_type": paymentType,
			"tenant_id":    s.tenant.ID.String(),
			"landlord_id":  s.landlord.ID.String(),
		}
	}

	raw, err := json.Marshal(map[string]interface{}{
		"id":       "pi_test_123",
		"amount":   300000,
		"metadata": metadata,
	})
	require.NoError(s.T(), err)

	return stripe.Event{
		ID:   "evt_test_123",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func (s *PaymentServiceTestSuite) propertyStatus() models.PropertyStatus {
	var property models.Property
	require.NoError(s.T(), s.db.First(&property, "id = ?", s.property.ID).Error)
	return property.Status
}

func (s *PaymentServiceTestSuite) TestDepositSuccessMarksPropertyRented() {
	err := s.svc.HandleEvent(s.event("payment_intent.succeeded", "security_deposit", true))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.PropertyStatusRented, s.propertyStatus())
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.tenant.ID, "Payment Received"))
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.landlord.ID, "Payment Received"))
}

func (s *PaymentServiceTestSuite) TestRentSuccessLeavesPropertyAlone() {
	err := s.svc.HandleEvent(s.event("payment_intent.succeeded", "rent", true))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.PropertyStatusAvailable, s.propertyStatus())
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.landlord.ID, "Payment Received"))
}

func (s *PaymentServiceTestSuite) TestFailureNotifiesTenantOnly() {
	err := s.svc.HandleEvent(s.event("payment_intent.payment_failed", "rent", true))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.PropertyStatusAvailable, s.propertyStatus())
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.tenant.ID, "Payment Failed"))
	assert.Equal(s.T(), 0, countNotifications(s.T(), s.db, s.landlord.ID, "Payment Failed"))
}

func (s *PaymentServiceTestSuite) TestMissingMetadataIsAcknowledgedWithoutWrites() {
	err := s.svc.HandleEvent(s.event("payment_intent.succeeded", "security_deposit", false))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.PropertyStatusAvailable, s.propertyStatus())

	var count int64
	require.NoError(s.T(), s.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(s.T(), count)
}

func (s *PaymentServiceTestSuite) TestUnhandledEventTypeIgnored() {
	err := s.svc.HandleEvent(s.event("charge.refunded", "rent", true))
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), models.PropertyStatusAvailable, s.propertyStatus())
}

func (s *PaymentServiceTestSuite) TestCreateIntentPreconditions() {
	// Not signed yet.
	_, err := s.svc.CreateIntent(s.tenant.ID, &CreatePaymentIntentRequest{
		AgreementID: s.agreement.ID,
		PaymentType: models.PaymentTypeRent,
		Amount:      1500,
	})
	assert.ErrorIs(s.T(), err, ErrInvalidState)

	require.NoError(s.T(), s.db.Model(&models.RentalAgreement{}).
		Where("id = ?", s.agreement.ID).
		Update("status", models.AgreementStatusSigned).Error)

	// Only the tenant pays.
	_, err = s.svc.CreateIntent(s.landlord.ID, &CreatePaymentIntentRequest{
		AgreementID: s.agreement.ID,
		PaymentType: models.PaymentTypeRent,
		Amount:      1500,
	})
	assert.ErrorIs(s.T(), err, ErrForbidden)

	// The amount must match the agreement exactly.
	_, err = s.svc.CreateIntent(s.tenant.ID, &CreatePaymentIntentRequest{
		AgreementID: s.agreement.ID,
		PaymentType: models.PaymentTypeSecurityDeposit,
		Amount:      2999,
	})
	var mismatch *AmountMismatchError
	require.ErrorAs(s.T(), err, &mismatch)
	assert.Equal(s.T(), 3000.0, mismatch.Expected)
	assert.Equal(s.T(), models.PaymentTypeSecurityDeposit, mismatch.PaymentType)
}

func (s *PaymentServiceTestSuite) TestAmountMismatchErrorMessage() {
	err := &AmountMismatchError{Expected: 1500, PaymentType: models.PaymentTypeRent}
	assert.Equal(s.T(),
		fmt.Sprintf("amount does not match the agreement's %s of %.2f", models.PaymentTypeRent, 1500.0),
		err.Error())
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
