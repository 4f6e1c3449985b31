// internal/handlers/property.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/leaselink/leaselink-backend/internal/i18n"
	"github.com/leaselink/leaselink-backend/internal/services"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

type PropertyHandler struct {
	propertyService *services.PropertyService
}

func NewPropertyHandler(propertyService *services.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// GET /properties
func (h *PropertyHandler) Search(c *gin.Context) {
	params := services.PropertySearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	params.City = c.Query("city")
	params.PropertyType = c.Query("property_type")
	if v := c.Query("min_bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.MinBedrooms = n
		}
	}
	if v := c.Query("max_rent"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.MaxRent = f
		}
	}

	properties, total, err := h.propertyService.Search(params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(properties, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	property, err := h.propertyService.Get(id)
	if err != nil {
		respondServiceError(c, err, "property")
		return
	}

	utils.SuccessResponse(c, property)
}

// GET /landlord/properties
func (h *PropertyHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	properties, total, err := h.propertyService.ListByLandlord(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(properties, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /properties
func (h *PropertyHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	property, err := h.propertyService.Create(userID, &req)
	if err != nil {
		respondServiceError(c, err, "property")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPropertyCreated),
		"property": property,
	})
}

// PATCH /properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	property, err := h.propertyService.Update(userID, id, &req)
	if err != nil {
		respondServiceError(c, err, "property")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPropertyUpdated),
		"property": property,
	})
}

// DELETE /properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.propertyService.Delete(userID, id); err != nil {
		respondServiceError(c, err, "property")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPropertyDeleted),
	})
}
