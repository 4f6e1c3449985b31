// internal/handlers/agreement.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/leaselink/leaselink-backend/internal/i18n"
	"github.com/leaselink/leaselink-backend/internal/services"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

type AgreementHandler struct {
	agreementService    *services.AgreementService
	verificationService *services.VerificationService
}

type resolveCommentRequest struct {
	Resolved *bool `json:"resolved" binding:"required"`
}

func NewAgreementHandler(agreementService *services.AgreementService, verificationService *services.VerificationService) *AgreementHandler {
	return &AgreementHandler{
		agreementService:    agreementService,
		verificationService: verificationService,
	}
}

// POST /agreements
func (h *AgreementHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	agreement, err := h.agreementService.Create(userID, &req)
	if err != nil {
		respondServiceError(c, err, "agreement")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyAgreementCreated),
		"agreement": agreement,
	})
}

// POST /negotiations/:id/agreement
func (h *AgreementHandler) CreateFromNegotiation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	negotiationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.CreateFromNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	agreement, err := h.agreementService.CreateFromNegotiation(userID, negotiationID, &req)
	if err != nil {
		respondServiceError(c, err, "negotiation")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyAgreementCreated),
		"agreement": agreement,
	})
}

// GET /agreements
func (h *AgreementHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	agreements, total, err := h.agreementService.List(userID, currentRole(c), params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(agreements, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /agreements/:id
func (h *AgreementHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	agreement, err := h.agreementService.Get(userID, id)
	if err != nil {
		respondServiceError(c, err, "agreement")
		return
	}

	utils.SuccessResponse(c, agreement)
}

// PATCH /agreements/:id
func (h *AgreementHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch services.AgreementPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	agreement, err := h.agreementService.Update(userID, currentRole(c), id, &patch)
	if err != nil {
		respondServiceError(c, err, "agreement")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyAgreementUpdated),
		"agreement": agreement,
	})
}

// GET /agreements/:id/versions/:version
func (h *AgreementHandler) GetVersion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	versionNumber, err := strconv.Atoi(c.Param("version"))
	if err != nil || versionNumber < 1 {
		utils.BadRequestResponse(c, "Invalid version number", nil)
		return
	}

	version, err := h.agreementService.GetVersion(userID, id, versionNumber)
	if err != nil {
		respondServiceError(c, err, "agreement")
		return
	}

	utils.SuccessResponse(c, version)
}

// POST /agreements/:id/comments
func (h *AgreementHandler) AddComment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	comment, err := h.agreementService.AddComment(userID, id, &req)
	if err != nil {
		respondServiceError(c, err, "agreement")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAgreementCommentAdded),
		"comment": comment,
	})
}

// PATCH /agreements/:id/comments/:commentId
func (h *AgreementHandler) ResolveComment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathUUID(c, "commentId")
	if !ok {
		return
	}

	var req resolveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	comment, err := h.agreementService.SetCommentResolved(userID, id, commentID, *req.Resolved)
	if err != nil {
		respondServiceError(c, err, "comment")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAgreementCommentUpdated),
		"comment": comment,
	})
}

// POST /agreements/:id/verify
func (h *AgreementHandler) Verify(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.verificationService.Verify(userID, id)
	if err != nil {
		respondServiceError(c, err, "agreement")
		return
	}

	utils.SuccessResponse(c, result)
}
