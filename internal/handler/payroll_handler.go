package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/crewflow-hq/crewflow-api/internal/middleware"
	"github.com/crewflow-hq/crewflow-api/internal/service"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
	"github.com/crewflow-hq/crewflow-api/pkg/response"
)

// PayrollHandler wires HTTP endpoints to the payroll export service.
type PayrollHandler struct {
	service *service.PayrollService
}

// NewPayrollHandler creates a new handler.
func NewPayrollHandler(svc *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{service: svc}
}

// Request queues a payroll export and returns the pending job.
func (h *PayrollHandler) Request(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RequestExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	job, err := h.service.Request(c.Request.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status returns the export job state and, when complete, a download token.
func (h *PayrollHandler) Status(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	job, token, err := h.service.Status(c.Request.Context(), claims.CompanyID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{}
	if token != "" {
		meta["download_token"] = token
	}
	response.JSON(c, http.StatusOK, job, nil, meta)
}

// Download streams the export file for a valid signed token. The token is the
// only credential, so the route sits outside the authenticated group.
func (h *PayrollHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	file, relPath, err := h.service.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	name := filepath.Base(relPath)
	contentType := "text/csv"
	if filepath.Ext(name) == ".pdf" {
		contentType = "application/pdf"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
