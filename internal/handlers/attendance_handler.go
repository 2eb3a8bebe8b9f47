package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/services"
	"github.com/druk-edu/school-admin-service/internal/utils"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler struct {
	BaseHandler
	attendanceService services.AttendanceService
	exportService     services.ExportService
}

func NewAttendanceHandler(
	attendanceService services.AttendanceService,
	exportService services.ExportService,
	logger utils.Logger,
) *AttendanceHandler {
	return &AttendanceHandler{
		BaseHandler:       NewBaseHandler(logger),
		attendanceService: attendanceService,
		exportService:     exportService,
	}
}

// MarkAttendance records or updates an attendance mark
// @Summary Mark attendance
// @Description Upserts the mark for (student, date, class)
// @Tags attendance
// @Accept json
// @Produce json
// @Param request body services.MarkAttendanceRequest true "Attendance mark"
// @Success 200 {object} models.AttendanceRecord
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attendance/mark [post]
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req services.MarkAttendanceRequest
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

	h.LogRequest(c, "Marking attendance", "student_id", req.StudentID, "class_id", req.ClassID, "date", req.Date)

	record, err := h.attendanceService.Mark(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListAttendance lists attendance records
// @Summary List attendance
// @Description Students are restricted to their own records
// @Tags attendance
// @Produce json
// @Param class_id query uint false "Class filter"
// @Param student_id query uint false "Student filter"
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.AttendanceListResponse
// @Failure 401 {object} ErrorResponse
// @Router /attendance [get]
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.attendanceService.List(c.Request.Context(), h.parseAttendanceFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStudentMonth returns the caller's attendance for one month
// @Summary Student month view
// @Tags attendance
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} services.AttendanceMonthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /attendance/student [get]
func (h *AttendanceHandler) GetStudentMonth(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	resp, err := h.attendanceService.GetStudentMonth(c.Request.Context(), userID, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSummary returns the caller's attendance summary for one month
// @Summary Student summary
// @Tags attendance
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} models.AttendanceSummary
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /attendance/summary [get]
func (h *AttendanceHandler) GetSummary(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	summary, err := h.attendanceService.GetStudentSummary(c.Request.Context(), userID, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportAttendance streams a class month sheet as xlsx
// @Summary Export attendance
// @Tags attendance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param class_id query uint true "Class ID"
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attendance/export [get]
func (h *AttendanceHandler) ExportAttendance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	classID := uint(h.parseIntQuery(c, "class_id", 0))
	if classID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "class_id is required",
		})
		return
	}

	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	h.LogRequest(c, "Exporting attendance", "class_id", classID, "month", month)

	result, err := h.exportService.AttendanceSheet(c.Request.Context(), classID, month, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *AttendanceHandler) parseAttendanceFilters(c *gin.Context) repositories.AttendanceFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 50)

	filters := repositories.AttendanceFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if classID := h.parseIntQuery(c, "class_id", 0); classID > 0 {
		id := uint(classID)
		filters.ClassID = &id
	}

	if studentID := h.parseIntQuery(c, "student_id", 0); studentID > 0 {
		id := uint(studentID)
		filters.StudentID = &id
	}

	if dateStr := c.Query("date"); dateStr != "" {
		if date, err := time.Parse("2006-01-02", dateStr); err == nil {
			filters.Date = &date
		}
	}

	return filters
}

func (h *AttendanceHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Class not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrStudentNotEnrolled):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Student is not enrolled in this class",
		})
	default:
		h.LogError(c, err, "Attendance operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
