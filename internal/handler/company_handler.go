package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewflow-hq/crewflow-api/internal/middleware"
	"github.com/crewflow-hq/crewflow-api/internal/service"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
	"github.com/crewflow-hq/crewflow-api/pkg/response"
)

// CompanyHandler wires HTTP endpoints to the company service.
type CompanyHandler struct {
	service *service.CompanyService
}

// NewCompanyHandler creates a new handler.
func NewCompanyHandler(svc *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: svc}
}

// Get returns the caller's company.
func (h *CompanyHandler) Get(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	company, err := h.service.Get(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// Update changes the company's display name.
func (h *CompanyHandler) Update(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid company payload"))
		return
	}

	company, err := h.service.Update(c.Request.Context(), claims.CompanyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// UpdateSettings replaces the company's settings blob.
func (h *CompanyHandler) UpdateSettings(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var settings json.RawMessage
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	company, err := h.service.UpdateSettings(c.Request.Context(), claims.CompanyID, settings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// ListCostCodes returns the company's cost codes.
func (h *CompanyHandler) ListCostCodes(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	activeOnly := c.Query("active") == "true"
	codes, err := h.service.ListCostCodes(c.Request.Context(), claims.CompanyID, activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, codes, nil)
}

// CreateCostCode registers a new cost code.
func (h *CompanyHandler) CreateCostCode(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateCostCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cost code payload"))
		return
	}

	code, err := h.service.CreateCostCode(c.Request.Context(), claims.CompanyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, code)
}

// UpdateCostCode updates a cost code, including retiring it.
func (h *CompanyHandler) UpdateCostCode(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateCostCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cost code payload"))
		return
	}

	code, err := h.service.UpdateCostCode(c.Request.Context(), claims.CompanyID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, code, nil)
}
