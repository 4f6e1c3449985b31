// internal/handlers/viewing.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/leaselink/leaselink-backend/internal/i18n"
	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/services"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

type ViewingHandler struct {
	viewingService *services.ViewingService
}

type updateViewingStatusRequest struct {
	Status models.ViewingStatus `json:"status" binding:"required"`
}

func NewViewingHandler(viewingService *services.ViewingService) *ViewingHandler {
	return &ViewingHandler{viewingService: viewingService}
}

// POST /viewings
func (h *ViewingHandler) Request(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.RequestViewingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	viewing, err := h.viewingService.Request(userID, &req)
	if err != nil {
		respondServiceError(c, err, "property")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyViewingRequested),
		"viewing": viewing,
	})
}

// GET /viewings
func (h *ViewingHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	viewings, total, err := h.viewingService.List(userID, currentRole(c), params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(viewings, total, params)
	utils.PaginatedResponse(c, result)
}

// PATCH /viewings/:id/status
func (h *ViewingHandler) UpdateStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateViewingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	viewing, err := h.viewingService.UpdateStatus(userID, id, req.Status)
	if err != nil {
		respondServiceError(c, err, "viewing")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyViewingUpdated),
		"viewing": viewing,
	})
}
