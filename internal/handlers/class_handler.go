package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/druk-edu/school-admin-service/internal/services"
	"github.com/druk-edu/school-admin-service/internal/utils"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type ClassHandler struct {
	BaseHandler
	classService services.ClassService
}

func NewClassHandler(classService services.ClassService, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler:  NewBaseHandler(logger),
		classService: classService,
	}
}

// CreateClass creates a new class
// @Summary Create class
// @Tags classes
// @Accept json
// @Produce json
// @Param request body services.CreateClassRequest true "Class data"
// @Success 201 {object} services.ClassResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /classes [post]
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req services.CreateClassRequest
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

	h.LogRequest(c, "Creating class", "name", req.Name)

	class, err := h.classService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// ListClasses lists classes visible to the caller
// @Summary List classes
// @Description Teachers see their own classes, students the classes they are enrolled in, admins everything
// @Tags classes
// @Produce json
// @Success 200 {object} services.ClassListResponse
// @Failure 401 {object} ErrorResponse
// @Router /classes [get]
func (h *ClassHandler) ListClasses(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.classService.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetClass retrieves a class by ID
// @Summary Get class
// @Tags classes
// @Produce json
// @Param id path uint true "Class ID"
// @Success 200 {object} services.ClassResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id} [get]
func (h *ClassHandler) GetClass(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// DeleteClass deletes a class with its slots and attendance records
// @Summary Delete class
// @Tags classes
// @Produce json
// @Param id path uint true "Class ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id} [delete]
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting class", "class_id", id)

	if err := h.classService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Class deleted"})
}

// GetRoster lists the students enrolled in a class
// @Summary Get class roster
// @Tags classes
// @Produce json
// @Param id path uint true "Class ID"
// @Success 200 {array} models.PublicUser
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id}/students [get]
func (h *ClassHandler) GetRoster(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	roster, err := h.classService.GetRoster(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// AddStudent enrolls a student in a class
// @Summary Enroll student
// @Tags classes
// @Accept json
// @Produce json
// @Param id path uint true "Class ID"
// @Param request body object{student_id=uint} true "Student to enroll"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /classes/{id}/students [post]
func (h *ClassHandler) AddStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		StudentID uint `json:"student_id" binding:"required"`
	}
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

	h.LogRequest(c, "Enrolling student", "class_id", id, "student_id", req.StudentID)

	if err := h.classService.AddStudent(c.Request.Context(), id, req.StudentID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student enrolled"})
}

// RemoveStudent removes a student from a class
// @Summary Unenroll student
// @Tags classes
// @Produce json
// @Param id path uint true "Class ID"
// @Param student_id path uint true "Student ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id}/students/{student_id} [delete]
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	studentID := h.parseIDParam(c, "student_id")
	if studentID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Unenrolling student", "class_id", id, "student_id", studentID)

	if err := h.classService.RemoveStudent(c.Request.Context(), id, studentID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student removed"})
}

func (h *ClassHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
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
	case errors.Is(err, services.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Class not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrNotAStudent):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Only students can be enrolled in a class",
		})
	case errors.Is(err, services.ErrStudentAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Student is already enrolled in this class",
		})
	case errors.Is(err, services.ErrStudentNotEnrolled):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Student is not enrolled in this class",
		})
	default:
		h.LogError(c, err, "Class operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
