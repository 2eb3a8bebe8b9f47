package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/druk-edu/school-admin-service/internal/services"
	"github.com/druk-edu/school-admin-service/internal/utils"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type TimetableHandler struct {
	BaseHandler
	timetableService services.TimetableService
}

func NewTimetableHandler(timetableService services.TimetableService, logger utils.Logger) *TimetableHandler {
	return &TimetableHandler{
		BaseHandler:      NewBaseHandler(logger),
		timetableService: timetableService,
	}
}

// CreateSlot books a timetable slot
// @Summary Create timetable slot
// @Description Books a slot after checking for room and teacher conflicts
// @Tags timetable
// @Accept json
// @Produce json
// @Param request body services.CreateSlotRequest true "Slot data"
// @Success 201 {object} services.SlotResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /timetable [post]
func (h *TimetableHandler) CreateSlot(c *gin.Context) {
	var req services.CreateSlotRequest
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

	h.LogRequest(c, "Creating timetable slot", "day", req.Day, "room", req.Room)

	slot, err := h.timetableService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// DeleteSlot removes a timetable slot
// @Summary Delete timetable slot
// @Tags timetable
// @Produce json
// @Param id path uint true "Slot ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) DeleteSlot(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting timetable slot", "slot_id", id)

	if err := h.timetableService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Slot deleted"})
}

// ListTimetable lists timetable slots visible to the caller
// @Summary List timetable
// @Description Teachers see their own slots, admins all slots
// @Tags timetable
// @Produce json
// @Success 200 {object} services.TimetableResponse
// @Failure 401 {object} ErrorResponse
// @Router /timetable [get]
func (h *TimetableHandler) ListTimetable(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.timetableService.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListStudentTimetable lists the slots of classes the student is enrolled in
// @Summary Student timetable
// @Tags timetable
// @Produce json
// @Success 200 {object} services.TimetableResponse
// @Failure 401 {object} ErrorResponse
// @Router /timetable/student [get]
func (h *TimetableHandler) ListStudentTimetable(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.timetableService.ListForStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TimetableHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var conflictError *services.ConflictError
	if errors.As(err, &conflictError) {
		message := "Room is already booked for this time"
		if conflictError.Kind == "teacher" {
			message = "Teacher already has a slot at this time"
		}
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: message,
			Details: conflictError,
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
	case errors.Is(err, services.ErrSlotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Timetable slot not found",
		})
	case errors.Is(err, services.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Class not found",
		})
	default:
		h.LogError(c, err, "Timetable operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
