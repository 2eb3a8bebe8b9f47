package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/services"
	"github.com/druk-edu/school-admin-service/internal/utils"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type LeaveHandler struct {
	BaseHandler
	leaveService services.LeaveService
}

func NewLeaveHandler(leaveService services.LeaveService, logger utils.Logger) *LeaveHandler {
	return &LeaveHandler{
		BaseHandler:  NewBaseHandler(logger),
		leaveService: leaveService,
	}
}

// ApplyLeave submits a leave request
// @Summary Apply for leave
// @Tags leaves
// @Accept json
// @Produce json
// @Param request body services.ApplyLeaveRequest true "Leave request"
// @Success 201 {object} services.LeaveResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /leaves/apply [post]
func (h *LeaveHandler) ApplyLeave(c *gin.Context) {
	var req services.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Applying for leave", "type", req.Type)

	leave, err := h.leaveService.Apply(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, leave)
}

// MyLeaves lists the caller's leave requests
// @Summary My leaves
// @Tags leaves
// @Produce json
// @Success 200 {object} services.LeaveListResponse
// @Failure 401 {object} ErrorResponse
// @Router /leaves/my-leaves [get]
func (h *LeaveHandler) MyLeaves(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.leaveService.GetByStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAll lists every student's leave requests (teachers and admins)
// @Summary All leaves
// @Tags leaves
// @Produce json
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.LeaveListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /leaves/all [get]
func (h *LeaveHandler) ListAll(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.leaveService.List(c.Request.Context(), h.parseLeaveFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DecideLeave approves or rejects a pending leave request
// @Summary Decide leave
// @Description Moves a pending request to approved or rejected, exactly once
// @Tags leaves
// @Accept json
// @Produce json
// @Param id path uint true "Leave ID"
// @Param request body services.LeaveDecisionRequest true "Decision"
// @Success 200 {object} services.LeaveResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /leaves/{id}/status [put]
func (h *LeaveHandler) DecideLeave(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.LeaveDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deciding leave request", "leave_id", id, "status", req.Status)

	leave, err := h.leaveService.Decide(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, leave)
}

func (h *LeaveHandler) parseLeaveFilters(c *gin.Context) repositories.LeaveFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 50)

	filters := repositories.LeaveFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.LeaveStatus(statusStr)
		filters.Status = &status
	}

	if typeStr := c.Query("type"); typeStr != "" {
		leaveType := models.LeaveType(typeStr)
		filters.Type = &leaveType
	}

	return filters
}

func (h *LeaveHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule": businessRuleError.Rule,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrLeaveNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Leave request not found",
		})
	case errors.Is(err, services.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Class not found",
		})
	case errors.Is(err, services.ErrStudentNotEnrolled):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Student is not enrolled in one of the named classes",
		})
	default:
		h.LogError(c, err, "Leave operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
