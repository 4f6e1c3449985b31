// internal/handlers/payment.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/leaselink/leaselink-backend/internal/config"
	"github.com/leaselink/leaselink-backend/internal/i18n"
	"github.com/leaselink/leaselink-backend/internal/services"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

const maxWebhookBodyBytes = 65536

type PaymentHandler struct {
	paymentService *services.PaymentService
	config         *config.Config
}

func NewPaymentHandler(paymentService *services.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		config:         cfg,
	}
}

// POST /payments/intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	intent, err := h.paymentService.CreateIntent(userID, &req)
	if err != nil {
		var mismatch *services.AmountMismatchError
		if errors.As(err, &mismatch) {
			utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
				i18n.T(lang, i18n.KeyPaymentInvalidAmount, mismatch.Expected, string(mismatch.PaymentType)), nil)
			return
		}
		respondServiceError(c, err, "agreement")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentIntentCreated),
		"intent":  intent,
	})
}

// POST /webhooks/stripe
//
// Signature failures are rejected; authentic events the trigger cannot use
// are acknowledged so the provider stops retrying them.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequestResponse(c, "Unable to read request body", nil)
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.config.Payment.StripeWebhookSecret)
	if err != nil {
		logrus.WithError(err).Warn("Rejected webhook with invalid signature")
		utils.BadRequestResponse(c, "Invalid webhook signature", nil)
		return
	}

	if err := h.paymentService.HandleEvent(event); err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Error("Failed to process payment event")
		utils.InternalErrorResponse(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
