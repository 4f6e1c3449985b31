// internal/handlers/negotiation.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/leaselink/leaselink-backend/internal/i18n"
	"github.com/leaselink/leaselink-backend/internal/services"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

type NegotiationHandler struct {
	negotiationService *services.NegotiationService
}

func NewNegotiationHandler(negotiationService *services.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiationService: negotiationService}
}

// POST /negotiations
func (h *NegotiationHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	negotiation, err := h.negotiationService.Create(userID, &req)
	if err != nil {
		respondServiceError(c, err, "property")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyNegotiationCreated),
		"negotiation": negotiation,
	})
}

// GET /negotiations
func (h *NegotiationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	negotiations, total, err := h.negotiationService.List(userID, currentRole(c), params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(negotiations, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /negotiations/:id
func (h *NegotiationHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	negotiation, err := h.negotiationService.Get(userID, id)
	if err != nil {
		respondServiceError(c, err, "negotiation")
		return
	}

	utils.SuccessResponse(c, negotiation)
}

// PATCH /negotiations/:id
func (h *NegotiationHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	negotiation, err := h.negotiationService.Update(userID, id, &req)
	if err != nil {
		respondServiceError(c, err, "negotiation")
		return
	}

	utils.SuccessResponse(c, negotiation)
}

// POST /negotiations/:id/messages
func (h *NegotiationHandler) PostMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyMessageTextRequired), err.Error())
		return
	}

	message, err := h.negotiationService.PostMessage(userID, id, &req)
	if err != nil {
		respondServiceError(c, err, "negotiation")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyMessageSent),
		"data":    message,
	})
}

// GET /negotiations/:id/messages
func (h *NegotiationHandler) GetMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	messages, err := h.negotiationService.GetMessages(userID, id)
	if err != nil {
		respondServiceError(c, err, "negotiation")
		return
	}

	utils.SuccessResponse(c, messages)
}
