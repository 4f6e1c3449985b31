// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAuthForbidden    = "auth.forbidden"
	KeyAuthRoleRequired = "auth.role_required"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationMissing = "validation.missing"

	// Properties
	KeyPropertyCreated      = "property.created"
	KeyPropertyUpdated      = "property.updated"
	KeyPropertyDeleted      = "property.deleted"
	KeyPropertyNotFound     = "property.not_found"
	KeyPropertyNotAvailable = "property.not_available"

	// Viewings
	KeyViewingRequested = "viewing.requested"
	KeyViewingUpdated   = "viewing.updated"
	KeyViewingNotFound  = "viewing.not_found"

	// Negotiations
	KeyNegotiationCreated    = "negotiation.created"
	KeyNegotiationNotFound   = "negotiation.not_found"
	KeyNegotiationNotActive  = "negotiation.not_active"
	KeyNegotiationDuplicate  = "negotiation.duplicate_active"
	KeyNegotiationNotParty   = "negotiation.not_participant"
	KeyMessageSent           = "message.sent"
	KeyMessageTextRequired   = "message.text_required"

	// Agreements
	KeyAgreementCreated        = "agreement.created"
	KeyAgreementUpdated        = "agreement.updated"
	KeyAgreementNotFound       = "agreement.not_found"
	KeyAgreementNotParty       = "agreement.not_participant"
	KeyAgreementContentLocked  = "agreement.content_locked"
	KeyAgreementSigned         = "agreement.signed"
	KeyAgreementCommentAdded   = "agreement.comment_added"
	KeyAgreementCommentUpdated = "agreement.comment_updated"
	KeyCommentNotFound         = "comment.not_found"

	// Payments
	KeyPaymentIntentCreated = "payment.intent_created"
	KeyPaymentInvalidAmount = "payment.invalid_amount"
	KeyPaymentNotSigned     = "payment.agreement_not_signed"
	KeyPaymentSuccess       = "payment.success"
	KeyPaymentFailed        = "payment.failed"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationsRead    = "notification.marked_read"
)
