package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/events"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

// attendanceThreshold is the percentage below which a monthly summary
// triggers a notification event.
const attendanceThreshold = 75

type attendanceService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
}

func NewAttendanceService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) AttendanceService {
	return &attendanceService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Mark records a student's presence for one day in one class. Marking the
// same (student, date, class) again overwrites the previous status; there is
// never more than one row per triple.
func (s *attendanceService) Mark(ctx context.Context, req *MarkAttendanceRequest, teacherID uint) (*models.AttendanceRecord, error) {
	s.logger.Info("Marking attendance",
		"teacher_id", teacherID,
		"student_id", req.StudentID,
		"class_id", req.ClassID,
		"date", req.Date)

	if errs := s.validator.GetBusinessValidator().ValidateAttendanceMark(req); len(errs) > 0 {
		return nil, errs
	}

	status := resolveStatus(req)

	class, err := s.repo.Class().GetByID(ctx, s.db, req.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	if class.TeacherID != teacherID {
		role, err := userRole(ctx, s.repo, s.db, teacherID)
		if err != nil {
			return nil, err
		}
		if role != models.RoleAdmin {
			return nil, NewPermissionError(teacherID, req.ClassID, "class", "mark_attendance", "not the owning teacher")
		}
	}

	enrolled, err := s.repo.Class().HasStudent(ctx, s.db, req.ClassID, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrStudentNotEnrolled
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, NewBusinessRuleError("date_format", err.Error())
	}

	record := &models.AttendanceRecord{
		StudentID:    req.StudentID,
		Date:         date,
		ClassID:      req.ClassID,
		Status:       status,
		RecordedByID: teacherID,
	}

	if err := s.repo.Attendance().Upsert(ctx, s.db, record); err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	saved, err := s.repo.Attendance().GetByKey(ctx, s.db, req.StudentID, date, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attendance record: %w", err)
	}

	s.logger.Info("Attendance marked",
		"record_id", saved.ID,
		"student_id", req.StudentID,
		"status", status)

	s.checkThreshold(ctx, req.StudentID, req.ClassID, date)

	return saved, nil
}

func (s *attendanceService) List(ctx context.Context, filters repositories.AttendanceFilters, actorID uint) (*AttendanceListResponse, error) {
	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleStudent {
		// Students only ever see their own ledger.
		filters.StudentID = &actorID
	}

	records, err := s.repo.Attendance().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	response := &AttendanceListResponse{
		Records: make([]*AttendanceRecordResponse, len(records)),
		Total:   len(records),
	}
	for i, record := range records {
		response.Records[i] = &AttendanceRecordResponse{AttendanceRecord: record}
	}

	return response, nil
}

// GetStudentMonth returns the student's records for one month, each joined
// with the timetable descriptors of its class.
func (s *attendanceService) GetStudentMonth(ctx context.Context, studentID uint, month string) (*AttendanceMonthResponse, error) {
	from, to, err := parseMonthRange(month)
	if err != nil {
		return nil, NewBusinessRuleError("month_format", err.Error())
	}

	records, err := s.repo.Attendance().GetByStudentAndRange(ctx, s.db, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get month attendance: %w", err)
	}

	slotsByClass, err := s.slotsForRecords(ctx, records)
	if err != nil {
		return nil, err
	}

	response := &AttendanceMonthResponse{
		Month:   month,
		Records: make([]*AttendanceRecordResponse, len(records)),
		Summary: Summarize(records),
	}
	for i, record := range records {
		response.Records[i] = &AttendanceRecordResponse{
			AttendanceRecord: record,
			Slots:            slotsByClass[record.ClassID],
		}
	}

	return response, nil
}

func (s *attendanceService) GetStudentSummary(ctx context.Context, studentID uint, month string) (*models.AttendanceSummary, error) {
	from, to, err := parseMonthRange(month)
	if err != nil {
		return nil, NewBusinessRuleError("month_format", err.Error())
	}

	records, err := s.repo.Attendance().GetByStudentAndRange(ctx, s.db, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get month attendance: %w", err)
	}

	summary := Summarize(records)
	return &summary, nil
}

// slotsForRecords loads the timetable slots for each distinct class in the
// record list, one query per class.
func (s *attendanceService) slotsForRecords(ctx context.Context, records []*models.AttendanceRecord) (map[uint][]*models.TimetableSlot, error) {
	slotsByClass := make(map[uint][]*models.TimetableSlot)
	for _, record := range records {
		if _, done := slotsByClass[record.ClassID]; done {
			continue
		}
		classID := record.ClassID
		slots, err := s.repo.Timetable().List(ctx, s.db, repositories.TimetableFilters{ClassID: &classID})
		if err != nil {
			return nil, fmt.Errorf("failed to get class slots: %w", err)
		}
		slotsByClass[classID] = slots
	}
	return slotsByClass, nil
}

// checkThreshold recomputes the student's monthly percentage after a mark
// and publishes a below-threshold event when it dips under the limit.
// Best effort: a publish failure is logged, never surfaced to the caller.
func (s *attendanceService) checkThreshold(ctx context.Context, studentID, classID uint, date time.Time) {
	month := date.Format(monthLayout)
	from, to, err := parseMonthRange(month)
	if err != nil {
		return
	}

	records, err := s.repo.Attendance().GetByStudentAndRange(ctx, s.db, studentID, from, to)
	if err != nil {
		s.logger.Warn("Failed to compute attendance threshold", "student_id", studentID, "error", err)
		return
	}

	summary := Summarize(records)
	if summary.Total == 0 || summary.Percentage >= attendanceThreshold {
		return
	}

	event := events.AttendanceBelowThresholdEvent{
		StudentID:  studentID,
		ClassID:    classID,
		Month:      month,
		Percentage: float64(summary.Percentage),
		Threshold:  attendanceThreshold,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, events.TopicAttendanceBelowThreshold, event); err != nil {
		s.logger.Warn("Failed to publish attendance threshold event", "student_id", studentID, "error", err)
	}
}

// resolveStatus maps the request onto the tri-state status. The explicit
// status wins over the legacy boolean flag.
func resolveStatus(req *MarkAttendanceRequest) models.AttendanceStatus {
	if req.Status != nil {
		return models.AttendanceStatus(*req.Status)
	}
	if req.Present != nil && *req.Present {
		return models.AttendancePresent
	}
	return models.AttendanceAbsent
}
