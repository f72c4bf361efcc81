package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewflow-hq/crewflow-api/internal/middleware"
	"github.com/crewflow-hq/crewflow-api/internal/models"
	"github.com/crewflow-hq/crewflow-api/internal/service"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
	"github.com/crewflow-hq/crewflow-api/pkg/response"
)

// TimecardHandler wires HTTP endpoints to the timecard service.
type TimecardHandler struct {
	service *service.TimecardService
}

// NewTimecardHandler creates a new handler.
func NewTimecardHandler(svc *service.TimecardService) *TimecardHandler {
	return &TimecardHandler{service: svc}
}

// List returns timecards visible to the caller. Callers without a crew or
// company wide view permission only ever see their own entries, regardless of
// the requested filter.
func (h *TimecardHandler) List(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.TimecardFilter{
		WorkerID:  c.Query("worker_id"),
		ProjectID: c.Query("project_id"),
		StartDate: timeQuery(c, "start_date"),
		EndDate:   timeQuery(c, "end_date"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 20),
	}
	if status := c.Query("status"); status != "" {
		s := models.TimecardStatus(status)
		filter.Status = &s
	}

	if !models.RoleHasPermission(claims.Role, models.PermViewAllTime) &&
		!models.RoleHasPermission(claims.Role, models.PermViewCrewTime) {
		filter.WorkerID = claims.UserID
	}

	timecards, pagination, err := h.service.List(c.Request.Context(), claims.CompanyID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timecards, pagination)
}

// Get returns a single timecard. Workers may only fetch their own.
func (h *TimecardHandler) Get(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tc, err := h.service.Get(c.Request.Context(), claims.CompanyID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if tc.WorkerID != claims.UserID &&
		!models.RoleHasPermission(claims.Role, models.PermViewAllTime) &&
		!models.RoleHasPermission(claims.Role, models.PermViewCrewTime) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, tc, nil)
}

// ClockIn opens a shift for the caller.
func (h *TimecardHandler) ClockIn(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clock-in payload"))
		return
	}

	tc, err := h.service.ClockIn(c.Request.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tc)
}

// ClockOut closes the caller's open shift.
func (h *TimecardHandler) ClockOut(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clock-out payload"))
		return
	}

	tc, err := h.service.ClockOut(c.Request.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tc, nil)
}

// Create records a completed shift on a worker's behalf.
func (h *TimecardHandler) Create(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timecard payload"))
		return
	}

	tc, err := h.service.CreateManual(c.Request.Context(), claims.CompanyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tc)
}

// Update edits a timecard.
func (h *TimecardHandler) Update(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateTimecardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timecard payload"))
		return
	}

	tc, err := h.service.Update(c.Request.Context(), claims.CompanyID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tc, nil)
}

// ChangeStatus submits or approves a batch of timecards.
func (h *TimecardHandler) ChangeStatus(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if req.Status == models.TimecardStatusApproved &&
		!models.RoleHasPermission(claims.Role, models.PermApproveTime) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	if err := h.service.ChangeStatus(c.Request.Context(), claims.CompanyID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete soft deletes a timecard.
func (h *TimecardHandler) Delete(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.CompanyID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
